package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/repository"
)

// NoteHooks is the slice of the gamification engine driven by the note lifecycle.
type NoteHooks interface {
	OnNoteUpload(ctx context.Context, userID uint)
	OnNoteRemoved(ctx context.Context, userID uint)
	OnCommentRemoved(ctx context.Context, userID uint)
}

// NoteService manages the note lifecycle and its bookkeeping.
type NoteService interface {
	Create(ctx context.Context, actor Actor, req dto.NoteCreateRequest, file *multipart.FileHeader) (dto.NoteResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.NoteResponse, error)
	SoftDelete(ctx context.Context, actor Actor, id uint) error
	HardDelete(ctx context.Context, actor Actor, id uint) error
	Reactivate(ctx context.Context, actor Actor, id uint) (dto.NoteResponse, error)
	ListReported(ctx context.Context, actor Actor, req dto.ReportedNoteListRequest) (dto.NoteListResponse, error)
}

type noteService struct {
	notes     repository.NoteRepository
	hooks     NoteHooks
	files     NoteFileUploader
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewNoteService constructs the note service. files and activity may be nil.
func NewNoteService(notes repository.NoteRepository, hooks NoteHooks, files NoteFileUploader, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) NoteService {
	return &noteService{
		notes:     notes,
		hooks:     hooks,
		files:     files,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "note_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/unishare-api/internal/service/note"),
	}
}

func (s *noteService) Create(ctx context.Context, actor Actor, req dto.NoteCreateRequest, file *multipart.FileHeader) (dto.NoteResponse, error) {
	if file != nil {
		req.FileURL = ""
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.NoteResponse{}, err
	}

	courseCode := models.NormalizeCourseCode(req.CourseCode)
	if courseCode == "" {
		return dto.NoteResponse{}, invalidInput("course code is empty")
	}

	title, err := boundedText(s.sanitizer, req.Title, "title", models.NoteTitleMaxLength)
	if err != nil {
		return dto.NoteResponse{}, err
	}
	if title == "" {
		return dto.NoteResponse{}, invalidInput("title is empty after sanitization")
	}
	instructor, err := boundedText(s.sanitizer, req.Instructor, "instructor", models.NoteInstructorMaxLength)
	if err != nil {
		return dto.NoteResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "notes.create", trace.WithAttributes(
		attribute.Int64("note.owner_id", int64(actor.ID)),
		attribute.String("note.course", courseCode),
	))
	defer span.End()

	fileURL := strings.TrimSpace(req.FileURL)
	if file != nil {
		if s.files == nil {
			return dto.NoteResponse{}, invalidInput("file uploads are disabled")
		}
		stored, err := s.files.Store(ctx, file)
		if err != nil {
			span.RecordError(err)
			return dto.NoteResponse{}, err
		}
		fileURL = stored.URL
	}
	if fileURL == "" {
		return dto.NoteResponse{}, invalidInput("a file or file_url is required")
	}

	note := models.Note{
		Title:        title,
		Description:  plainText(s.sanitizer, req.Description),
		Instructor:   instructor,
		FileURL:      fileURL,
		YearSemester: models.FormatYearSemester(req.Year, req.Semester),
		OwnerID:      actor.ID,
		UniversityID: actor.UniversityID,
	}

	course, err := s.notes.CreateWithCourse(ctx, &note, courseCode)
	if err != nil {
		span.RecordError(err)
		return dto.NoteResponse{}, translateStoreError(err, "create note")
	}

	s.hooks.OnNoteUpload(ctx, actor.ID)
	s.logger.Info().Uint("note_id", note.ID).Uint("owner_id", actor.ID).Str("course", course.Code).Msg("note uploaded")

	response := dto.NewNoteResponse(note)
	response.CourseCode = course.Code
	return response, nil
}

// Get returns a note of the caller's university and counts the view. Inactive notes are
// visible to their owner and to admins only.
func (s *noteService) Get(ctx context.Context, actor Actor, id uint) (dto.NoteResponse, error) {
	note, err := s.scopedNote(ctx, actor, id)
	if err != nil {
		return dto.NoteResponse{}, err
	}
	if !note.IsActive && note.OwnerID != actor.ID && !actor.IsAdmin() {
		return dto.NoteResponse{}, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}

	if note.IsActive {
		if err := s.notes.IncrementViews(ctx, id); err != nil {
			s.logger.Warn().Err(err).Uint("note_id", id).Msg("failed to count note view")
		} else {
			note.ViewCount++
		}
	}

	response := dto.NewNoteResponse(note)
	if course, err := s.notes.GetCourse(ctx, note.CourseID); err == nil {
		response.CourseCode = course.Code
	}
	return response, nil
}

func (s *noteService) SoftDelete(ctx context.Context, actor Actor, id uint) error {
	note, err := s.scopedNote(ctx, actor, id)
	if err != nil {
		return err
	}
	if note.OwnerID != actor.ID {
		return fmt.Errorf("note %d: %w", id, ErrForbidden)
	}

	deactivated, err := s.notes.Deactivate(ctx, id)
	if err != nil {
		return translateStoreError(err, "deactivate note")
	}
	if !deactivated {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}

	s.removalBookkeeping(ctx, note)
	return nil
}

func (s *noteService) HardDelete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if _, err := s.scopedNote(ctx, actor, id); err != nil {
		return err
	}

	removed, commentAuthors, err := s.notes.HardDelete(ctx, id)
	if err != nil {
		return translateStoreError(err, "delete note")
	}

	for _, authorID := range commentAuthors {
		s.hooks.OnCommentRemoved(ctx, authorID)
	}

	// an inactive note already had its points and course count taken away
	if removed.IsActive {
		s.removalBookkeeping(ctx, removed)
	}

	s.record(ctx, actor, models.ActivityNoteHardDeleted, removed, map[string]interface{}{
		"owner_id":   removed.OwnerID,
		"was_active": removed.IsActive,
		"reports":    removed.Reports,
		"comments":   len(commentAuthors),
	})
	return nil
}

func (s *noteService) Reactivate(ctx context.Context, actor Actor, id uint) (dto.NoteResponse, error) {
	if !actor.IsAdmin() {
		return dto.NoteResponse{}, ErrForbidden
	}
	note, err := s.scopedNote(ctx, actor, id)
	if err != nil {
		return dto.NoteResponse{}, err
	}

	reactivated, err := s.notes.Reactivate(ctx, id)
	if err != nil {
		return dto.NoteResponse{}, translateStoreError(err, "reactivate note")
	}
	if !reactivated {
		return dto.NoteResponse{}, fmt.Errorf("note %d is already active: %w", id, ErrConflict)
	}

	if err := s.notes.AdjustCourseNoteCount(ctx, note.CourseID, 1); err != nil {
		s.logger.Error().Err(err).Uint("course_id", note.CourseID).Msg("failed to increment course note count")
	}
	s.hooks.OnNoteUpload(ctx, note.OwnerID)

	s.record(ctx, actor, models.ActivityNoteReactivated, note, map[string]interface{}{
		"owner_id":        note.OwnerID,
		"cleared_reports": note.Reports,
	})

	refreshed, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return dto.NoteResponse{}, translateStoreError(err, "load note")
	}
	return dto.NewNoteResponse(refreshed), nil
}

func (s *noteService) ListReported(ctx context.Context, actor Actor, req dto.ReportedNoteListRequest) (dto.NoteListResponse, error) {
	if !actor.IsAdmin() {
		return dto.NoteListResponse{}, ErrForbidden
	}

	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)
	notes, total, err := s.notes.ListReported(ctx, repository.ReportedNoteFilter{
		UniversityID: actor.UniversityID,
		OnlyInactive: req.OnlyInactive,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return dto.NoteListResponse{}, translateStoreError(err, "list reported notes")
	}

	items := make([]dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		items = append(items, dto.NewNoteResponse(note))
	}

	return dto.NoteListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, pageSize, total)}, nil
}

func (s *noteService) scopedNote(ctx context.Context, actor Actor, id uint) (models.Note, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return models.Note{}, translateStoreError(err, fmt.Sprintf("note %d", id))
	}
	if note.UniversityID != actor.UniversityID {
		return models.Note{}, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	return note, nil
}

// removalBookkeeping takes the note's points from its owner and drops it from the course count.
func (s *noteService) removalBookkeeping(ctx context.Context, note models.Note) {
	s.hooks.OnNoteRemoved(ctx, note.OwnerID)
	if err := s.notes.AdjustCourseNoteCount(ctx, note.CourseID, -1); err != nil {
		s.logger.Error().Err(err).Uint("course_id", note.CourseID).Uint("note_id", note.ID).Msg("failed to decrement course note count")
	}
}

func (s *noteService) record(ctx context.Context, actor Actor, action string, note models.Note, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	actorID := actor.ID
	if err := s.activity.Record(ctx, ActivityEntry{
		UniversityID: note.UniversityID,
		ActorID:      &actorID,
		ActorRole:    actor.Role,
		Action:       action,
		EntityType:   string(models.TargetNote),
		EntityID:     note.ID,
		Metadata:     metadata,
	}); err != nil {
		s.logger.Error().Err(err).Str("action", action).Uint("note_id", note.ID).Msg("failed to record moderation action")
	}
}
