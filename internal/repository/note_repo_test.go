package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/unishare-api/internal/models"
)

func TestNoteRepositoryCourseUpsertPerUniversity(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, 1, "alice")
	bob := seedUser(t, db, 1, "bob")
	carol := seedUser(t, db, 2, "carol")

	first := models.Note{Title: "a", FileURL: "u", OwnerID: alice.ID, UniversityID: 1}
	course, err := repo.CreateWithCourse(ctx, &first, "CS101")
	require.NoError(t, err)
	require.Equal(t, 1, course.NoteCount)
	require.True(t, first.IsActive)

	second := models.Note{Title: "b", FileURL: "u", OwnerID: bob.ID, UniversityID: 1}
	again, err := repo.CreateWithCourse(ctx, &second, "CS101")
	require.NoError(t, err)
	require.Equal(t, course.ID, again.ID)
	require.Equal(t, 2, again.NoteCount)

	other := models.Note{Title: "c", FileURL: "u", OwnerID: carol.ID, UniversityID: 2}
	otherCourse, err := repo.CreateWithCourse(ctx, &other, "CS101")
	require.NoError(t, err)
	require.NotEqual(t, course.ID, otherCourse.ID)
	require.Equal(t, 1, otherCourse.NoteCount)
}

func TestNoteRepositoryDeactivateIsCompareAndSet(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	note := seedNote(t, db, seedUser(t, db, 1, "owner"), "ENG101")

	changed, err := repo.Deactivate(ctx, note.ID)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = repo.Deactivate(ctx, note.ID)
	require.NoError(t, err)
	require.False(t, changed)
}

func TestNoteRepositoryReactivateClearsReports(t *testing.T) {
	db := setupRepoTestDB(t)
	notes := NewNoteRepository(db)
	reactions := NewReactionRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, 1, "owner")
	liker := seedUser(t, db, 1, "liker")
	reporter := seedUser(t, db, 1, "reporter")
	note := seedNote(t, db, owner, "ART100")

	_, err := reactions.SetReaction(ctx, SetReactionInput{UserID: liker.ID, Target: models.NoteTarget(note.ID), Kind: models.ReactionLike, At: time.Now()})
	require.NoError(t, err)
	outcome, err := reactions.SetReaction(ctx, SetReactionInput{UserID: reporter.ID, Target: models.NoteTarget(note.ID), Kind: models.ReactionReport, At: time.Now(), ReportThreshold: 1})
	require.NoError(t, err)
	require.True(t, outcome.Deactivated)

	reactivated, err := notes.Reactivate(ctx, note.ID)
	require.NoError(t, err)
	require.True(t, reactivated)

	reactivated, err = notes.Reactivate(ctx, note.ID)
	require.NoError(t, err)
	require.False(t, reactivated, "already active")

	stored, err := notes.GetByID(ctx, note.ID)
	require.NoError(t, err)
	require.True(t, stored.IsActive)
	require.Zero(t, stored.Reports)
	require.Equal(t, 1, stored.Likes)

	counted, err := reactions.CountByKind(ctx, models.NoteTarget(note.ID))
	require.NoError(t, err)
	require.Equal(t, models.Counters{Likes: 1}, counted)
}

func TestNoteRepositoryHardDeleteCascades(t *testing.T) {
	db := setupRepoTestDB(t)
	notes := NewNoteRepository(db)
	reactions := NewReactionRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, 1, "owner")
	reader := seedUser(t, db, 1, "reader")
	note := seedNote(t, db, owner, "CHEM100")
	comment := models.Comment{NoteID: note.ID, AuthorID: reader.ID, Text: "nice"}
	require.NoError(t, db.Create(&comment).Error)

	_, err := reactions.SetReaction(ctx, SetReactionInput{UserID: reader.ID, Target: models.NoteTarget(note.ID), Kind: models.ReactionLike, At: time.Now()})
	require.NoError(t, err)
	_, err = reactions.SetReaction(ctx, SetReactionInput{UserID: owner.ID, Target: models.CommentTarget(comment.ID), Kind: models.ReactionLike, At: time.Now()})
	require.NoError(t, err)

	second := models.Comment{NoteID: note.ID, AuthorID: reader.ID, Text: "again"}
	require.NoError(t, db.Create(&second).Error)

	removed, authors, err := notes.HardDelete(ctx, note.ID)
	require.NoError(t, err)
	require.Equal(t, note.ID, removed.ID)
	require.True(t, removed.IsActive)
	require.Equal(t, []uint{reader.ID, reader.ID}, authors)

	var count int64
	require.NoError(t, db.Model(&models.Reaction{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	require.Zero(t, count)

	_, err = notes.GetByID(ctx, note.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestNoteRepositoryListReportedOrdersByReports(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, 1, "owner")
	low := seedNote(t, db, owner, "A1")
	high := seedNote(t, db, owner, "A1")
	seedNote(t, db, owner, "A1")
	foreign := seedNote(t, db, seedUser(t, db, 2, "foreign"), "A1")

	require.NoError(t, db.Model(&models.Note{}).Where("id = ?", low.ID).UpdateColumn("reports", 2).Error)
	require.NoError(t, db.Model(&models.Note{}).Where("id = ?", high.ID).UpdateColumns(map[string]interface{}{"reports": 9, "is_active": false}).Error)
	require.NoError(t, db.Model(&models.Note{}).Where("id = ?", foreign.ID).UpdateColumn("reports", 20).Error)

	listed, total, err := repo.ListReported(ctx, ReportedNoteFilter{UniversityID: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, []uint{high.ID, low.ID}, []uint{listed[0].ID, listed[1].ID})

	listed, total, err = repo.ListReported(ctx, ReportedNoteFilter{UniversityID: 1, OnlyInactive: true, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, high.ID, listed[0].ID)
}

func TestNoteRepositoryCourseCountNeverNegative(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	note := seedNote(t, db, seedUser(t, db, 1, "owner"), "GEO1")
	require.NoError(t, repo.AdjustCourseNoteCount(ctx, note.CourseID, -1))
	require.NoError(t, repo.AdjustCourseNoteCount(ctx, note.CourseID, -1))

	course, err := repo.GetCourse(ctx, note.CourseID)
	require.NoError(t, err)
	require.Zero(t, course.NoteCount)

	require.ErrorIs(t, repo.AdjustCourseNoteCount(ctx, note.CourseID+50, 1), gorm.ErrRecordNotFound)
}
