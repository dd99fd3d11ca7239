package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/repository"
)

// CommentHooks is the slice of the gamification engine driven by comments.
type CommentHooks interface {
	OnCommentPost(ctx context.Context, userID uint)
	OnCommentRemoved(ctx context.Context, userID uint)
}

// CommentNotifier announces new comments to note owners.
type CommentNotifier interface {
	NotifyComment(ctx context.Context, actor models.NotificationActor, excerpt string, noteID, ownerID uint) error
}

// CommentService manages comments on notes.
type CommentService interface {
	Create(ctx context.Context, actor Actor, noteID uint, req dto.CommentCreateRequest) (dto.CommentResponse, error)
	List(ctx context.Context, actor Actor, noteID uint, page, pageSize int) ([]dto.CommentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type commentService struct {
	comments  repository.CommentRepository
	notes     repository.NoteRepository
	hooks     CommentHooks
	notifier  CommentNotifier
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCommentService constructs the comment service. notifier and activity may be nil.
func NewCommentService(comments repository.CommentRepository, notes repository.NoteRepository, hooks CommentHooks, notifier CommentNotifier, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) CommentService {
	return &commentService{
		comments:  comments,
		notes:     notes,
		hooks:     hooks,
		notifier:  notifier,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "comment_service").Logger(),
	}
}

func (s *commentService) Create(ctx context.Context, actor Actor, noteID uint, req dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CommentResponse{}, err
	}

	text, err := boundedText(s.sanitizer, req.Text, "comment", models.CommentMaxLength)
	if err != nil {
		return dto.CommentResponse{}, err
	}
	if text == "" {
		return dto.CommentResponse{}, invalidInput("comment is empty after sanitization")
	}

	note, err := s.activeNote(ctx, actor, noteID)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	comment := models.Comment{NoteID: note.ID, AuthorID: actor.ID, Text: text}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return dto.CommentResponse{}, translateStoreError(err, "create comment")
	}

	s.hooks.OnCommentPost(ctx, actor.ID)

	if s.notifier != nil {
		notifyActor := models.NotificationActor{UserID: actor.ID, Name: actor.Name}
		if err := s.notifier.NotifyComment(ctx, notifyActor, text, note.ID, note.OwnerID); err != nil {
			s.logger.Warn().Err(err).Uint("note_id", note.ID).Msg("failed to notify comment")
		}
	}

	return dto.NewCommentResponse(comment), nil
}

func (s *commentService) List(ctx context.Context, actor Actor, noteID uint, page, pageSize int) ([]dto.CommentResponse, error) {
	if _, err := s.activeNote(ctx, actor, noteID); err != nil {
		return nil, err
	}

	page = maxInt(page, 1)
	pageSize = clampPageSize(pageSize)
	comments, err := s.comments.ListByNote(ctx, noteID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, translateStoreError(err, "list comments")
	}
	return dto.NewCommentResponseSlice(comments), nil
}

// Delete removes a comment on behalf of its author or an admin of the same university.
func (s *commentService) Delete(ctx context.Context, actor Actor, id uint) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return translateStoreError(err, fmt.Sprintf("comment %d", id))
	}

	note, err := s.notes.GetByID(ctx, comment.NoteID)
	if err != nil {
		return translateStoreError(err, fmt.Sprintf("note %d", comment.NoteID))
	}
	if note.UniversityID != actor.UniversityID {
		return fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	if comment.AuthorID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("comment %d: %w", id, ErrForbidden)
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return translateStoreError(err, "delete comment")
	}

	s.hooks.OnCommentRemoved(ctx, comment.AuthorID)

	if comment.AuthorID != actor.ID && s.activity != nil {
		actorID := actor.ID
		if err := s.activity.Record(ctx, ActivityEntry{
			UniversityID: note.UniversityID,
			ActorID:      &actorID,
			ActorRole:    actor.Role,
			Action:       models.ActivityCommentRemoved,
			EntityType:   string(models.TargetComment),
			EntityID:     comment.ID,
			Metadata:     map[string]interface{}{"note_id": note.ID, "author_id": comment.AuthorID},
		}); err != nil {
			s.logger.Error().Err(err).Uint("comment_id", id).Msg("failed to record comment removal")
		}
	}

	return nil
}

func (s *commentService) activeNote(ctx context.Context, actor Actor, noteID uint) (models.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return models.Note{}, translateStoreError(err, fmt.Sprintf("note %d", noteID))
	}
	if note.UniversityID != actor.UniversityID || !note.IsActive {
		return models.Note{}, fmt.Errorf("note %d: %w", noteID, ErrNotFound)
	}
	return note, nil
}
