package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/unishare-api/internal/models"
)

// ReportedNoteFilter narrows the moderation listing.
type ReportedNoteFilter struct {
	UniversityID uint
	OnlyInactive bool
	Page         int
	PageSize     int
}

// NoteRepository persists notes and the course note counters that follow them.
type NoteRepository interface {
	CreateWithCourse(ctx context.Context, note *models.Note, courseCode string) (models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Note, error)
	IncrementViews(ctx context.Context, id uint) error
	Deactivate(ctx context.Context, id uint) (bool, error)
	Reactivate(ctx context.Context, id uint) (bool, error)
	HardDelete(ctx context.Context, id uint) (models.Note, []uint, error)
	ListReported(ctx context.Context, filter ReportedNoteFilter) ([]models.Note, int64, error)
	AdjustCourseNoteCount(ctx context.Context, courseID uint, delta int) error
	GetCourse(ctx context.Context, id uint) (models.Course, error)
}

type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository constructs a note repository.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

// CreateWithCourse upserts the course for (university, code), bumps its note count and
// inserts the note in one transaction.
func (r *noteRepository) CreateWithCourse(ctx context.Context, note *models.Note, courseCode string) (models.Course, error) {
	var course models.Course

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := models.Course{UniversityID: note.UniversityID, Code: courseCode, NoteCount: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "university_id"}, {Name: "code"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"note_count": gorm.Expr("courses.note_count + 1")}),
		}).Create(&candidate).Error; err != nil {
			return err
		}

		if err := tx.Where("university_id = ? AND code = ?", note.UniversityID, courseCode).Take(&course).Error; err != nil {
			return err
		}

		note.CourseID = course.ID
		note.IsActive = true
		return tx.Create(note).Error
	})
	if err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *noteRepository) GetByID(ctx context.Context, id uint) (models.Note, error) {
	var note models.Note
	if err := r.db.WithContext(ctx).First(&note, id).Error; err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (r *noteRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Note{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// Deactivate flips an active note to inactive and reports whether this call did it.
func (r *noteRepository) Deactivate(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Note{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Reactivate restores an inactive note, clearing its reports together with the report
// reactions that produced them so the counter stays derivable from the reactions table.
func (r *noteRepository) Reactivate(ctx context.Context, id uint) (bool, error) {
	var reactivated bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Note{}).
			Where("id = ? AND is_active = ?", id, false).
			UpdateColumns(map[string]interface{}{"is_active": true, "reports": 0})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		reactivated = true

		return tx.Where("target_type = ? AND target_id = ? AND kind = ?", models.TargetNote, id, models.ReactionReport).
			Delete(&models.Reaction{}).Error
	})
	if err != nil {
		return false, err
	}

	return reactivated, nil
}

// HardDelete removes the note with its comments and every reaction attached to either.
// The deleted note is returned with the author of each removed comment, one entry per
// comment, so callers can run follow-up bookkeeping.
func (r *noteRepository) HardDelete(ctx context.Context, id uint) (models.Note, []uint, error) {
	var (
		note     models.Note
		comments []models.Comment
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&note, id).Error; err != nil {
			return err
		}

		if err := tx.Select("id", "author_id").Where("note_id = ?", id).Order("id").Find(&comments).Error; err != nil {
			return err
		}
		commentIDs := make([]uint, 0, len(comments))
		for _, comment := range comments {
			commentIDs = append(commentIDs, comment.ID)
		}
		if err := deleteReactionsForTargets(tx, models.TargetComment, commentIDs); err != nil {
			return err
		}
		if err := deleteReactionsForTargets(tx, models.TargetNote, []uint{id}); err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Note{}, id).Error
	})
	if err != nil {
		return models.Note{}, nil, err
	}

	authors := make([]uint, 0, len(comments))
	for _, comment := range comments {
		authors = append(authors, comment.AuthorID)
	}
	return note, authors, nil
}

func (r *noteRepository) ListReported(ctx context.Context, filter ReportedNoteFilter) ([]models.Note, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Note{}).Where("reports > ?", 0)
	if filter.UniversityID != 0 {
		query = query.Where("university_id = ?", filter.UniversityID)
	}
	if filter.OnlyInactive {
		query = query.Where("is_active = ?", false)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var notes []models.Note
	if err := query.Order("reports DESC").Order("id ASC").Find(&notes).Error; err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

func (r *noteRepository) AdjustCourseNoteCount(ctx context.Context, courseID uint, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("note_count", clampedAdd("note_count", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *noteRepository) GetCourse(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}
