package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/unishare-api/internal/models"
)

var errTargetVanished = errors.New("reaction target vanished")

// SetReactionInput describes a like/dislike/report submission.
type SetReactionInput struct {
	UserID      uint
	Target      models.TargetRef
	Kind        models.ReactionKind
	Description string
	At          time.Time
	// ReportThreshold enables report-driven deactivation of notes when > 0.
	ReportThreshold int
}

// ReactionOutcome is the result of SetReaction. Final is nil when the reaction was toggled off.
type ReactionOutcome struct {
	Previous      *models.ReactionKind
	Final         *models.Reaction
	Delta         models.CounterDelta
	Counters      models.Counters
	Clamped       []string
	TargetMissing bool
	Deactivated   bool
}

// ReactionRepository persists one reaction per (user, target) together with the target's counters.
type ReactionRepository interface {
	ResolveTarget(ctx context.Context, target models.TargetRef) (models.TargetInfo, error)
	SetReaction(ctx context.Context, input SetReactionInput) (ReactionOutcome, error)
	FindByUserAndTarget(ctx context.Context, userID uint, target models.TargetRef) (models.Reaction, error)
	CountByKind(ctx context.Context, target models.TargetRef) (models.Counters, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository constructs a GORM-backed reaction store.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) ResolveTarget(ctx context.Context, target models.TargetRef) (models.TargetInfo, error) {
	db := r.db.WithContext(ctx)

	switch target.Kind {
	case models.TargetNote:
		var note models.Note
		if err := db.Select("id", "university_id", "owner_id", "course_id", "is_active").
			Where("id = ?", target.ID).Take(&note).Error; err != nil {
			return models.TargetInfo{}, err
		}
		return models.TargetInfo{
			Ref:          target,
			UniversityID: note.UniversityID,
			OwnerID:      note.OwnerID,
			NoteID:       note.ID,
			CourseID:     note.CourseID,
			Active:       note.IsActive,
		}, nil
	case models.TargetComment:
		var comment models.Comment
		if err := db.Select("id", "note_id", "author_id").
			Where("id = ?", target.ID).Take(&comment).Error; err != nil {
			return models.TargetInfo{}, err
		}
		var note models.Note
		if err := db.Select("id", "university_id", "course_id", "is_active").
			Where("id = ?", comment.NoteID).Take(&note).Error; err != nil {
			return models.TargetInfo{}, err
		}
		return models.TargetInfo{
			Ref:          target,
			UniversityID: note.UniversityID,
			OwnerID:      comment.AuthorID,
			NoteID:       note.ID,
			CourseID:     note.CourseID,
			Active:       note.IsActive,
		}, nil
	}

	return models.TargetInfo{}, gorm.ErrRecordNotFound
}

func (r *reactionRepository) SetReaction(ctx context.Context, input SetReactionInput) (ReactionOutcome, error) {
	var outcome ReactionOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		outcome = ReactionOutcome{}

		var existing models.Reaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND target_type = ? AND target_id = ?", input.UserID, input.Target.Kind, input.Target.ID).
			Take(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction := models.Reaction{
				UserID:      input.UserID,
				TargetType:  input.Target.Kind,
				TargetID:    input.Target.ID,
				Kind:        input.Kind,
				Description: input.Description,
				ReactedAt:   input.At,
			}
			if err := tx.Create(&reaction).Error; err != nil {
				return err
			}
			outcome.Final = &reaction
			outcome.Delta = models.CounterDelta{input.Kind: 1}
		case err != nil:
			return err
		case existing.Kind == input.Kind:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			previous := existing.Kind
			outcome.Previous = &previous
			outcome.Delta = models.CounterDelta{input.Kind: -1}
		default:
			previous := existing.Kind
			existing.Kind = input.Kind
			existing.Description = input.Description
			existing.ReactedAt = input.At
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			outcome.Previous = &previous
			outcome.Final = &existing
			outcome.Delta = models.CounterDelta{previous: -1, input.Kind: 1}
		}

		counters, err := applyCounterDelta(tx, input.Target, outcome.Delta)
		if err != nil {
			return err
		}
		if counters.Missing {
			return errTargetVanished
		}
		outcome.Counters = counters.Counters
		outcome.Clamped = counters.Clamped

		if input.Target.Kind == models.TargetNote && input.ReportThreshold > 0 && outcome.Delta[models.ReactionReport] > 0 {
			deactivated, err := deactivateReportedNote(tx, input.Target.ID, input.ReportThreshold)
			if err != nil {
				return err
			}
			outcome.Deactivated = deactivated
		}

		return nil
	})

	if errors.Is(err, errTargetVanished) {
		return ReactionOutcome{TargetMissing: true}, nil
	}
	if err != nil {
		return ReactionOutcome{}, err
	}

	return outcome, nil
}

func (r *reactionRepository) FindByUserAndTarget(ctx context.Context, userID uint, target models.TargetRef) (models.Reaction, error) {
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Kind, target.ID).
		Take(&reaction).Error; err != nil {
		return models.Reaction{}, err
	}
	return reaction, nil
}

func (r *reactionRepository) CountByKind(ctx context.Context, target models.TargetRef) (models.Counters, error) {
	var rows []struct {
		Kind  models.ReactionKind
		Total int
	}
	if err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("kind, COUNT(*) AS total").
		Where("target_type = ? AND target_id = ?", target.Kind, target.ID).
		Group("kind").
		Scan(&rows).Error; err != nil {
		return models.Counters{}, err
	}

	var counters models.Counters
	for _, row := range rows {
		switch row.Kind {
		case models.ReactionLike:
			counters.Likes = row.Total
		case models.ReactionDislike:
			counters.Dislikes = row.Total
		case models.ReactionReport:
			counters.Reports = row.Total
		}
	}
	return counters, nil
}

// deleteReactionsForTargets removes every reaction pointing at the given targets of one kind.
func deleteReactionsForTargets(tx *gorm.DB, kind models.TargetKind, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("target_type = ? AND target_id IN ?", kind, ids).Delete(&models.Reaction{}).Error
}
