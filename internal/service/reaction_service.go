package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/observability"
	"github.com/noah-isme/unishare-api/internal/repository"
)

// LikeHooks is the slice of the gamification engine driven by reactions.
type LikeHooks interface {
	OnLikeReceived(ctx context.Context, userID uint)
	OnLikeRemoved(ctx context.Context, userID uint)
	OnNoteRemoved(ctx context.Context, userID uint)
}

// LikeNotifier announces new likes to note owners.
type LikeNotifier interface {
	NotifyLike(ctx context.Context, actor models.NotificationActor, noteID, ownerID uint) error
}

// ReactionService applies like/dislike/report submissions and their side effects.
type ReactionService interface {
	React(ctx context.Context, actor Actor, target models.TargetRef, kind models.ReactionKind, req dto.ReactionRequest) (dto.ReactionResult, error)
	MyReaction(ctx context.Context, actor Actor, target models.TargetRef) (dto.MyReactionResponse, error)
}

type reactionService struct {
	reactions    repository.ReactionRepository
	notes        repository.NoteRepository
	gamification LikeHooks
	notifier     LikeNotifier
	activity     ActivityRecorder
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	threshold    int
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewReactionService constructs the reaction service. notifier and activity may be nil.
func NewReactionService(reactions repository.ReactionRepository, notes repository.NoteRepository, gamification LikeHooks, notifier LikeNotifier, activity ActivityRecorder, validate *validator.Validate, reportThreshold int, logger zerolog.Logger) ReactionService {
	if reportThreshold <= 0 {
		reportThreshold = models.ReportDeactivationThreshold
	}
	return &reactionService{
		reactions:    reactions,
		notes:        notes,
		gamification: gamification,
		notifier:     notifier,
		activity:     activity,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		threshold:    reportThreshold,
		logger:       logger.With().Str("component", "reaction_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/unishare-api/internal/service/reaction"),
		now:          time.Now,
	}
}

func (s *reactionService) React(ctx context.Context, actor Actor, target models.TargetRef, kind models.ReactionKind, req dto.ReactionRequest) (dto.ReactionResult, error) {
	if !kind.Valid() {
		return dto.ReactionResult{}, invalidInput("unknown reaction kind %q", kind)
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ReactionResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "reactions.set", trace.WithAttributes(
		attribute.String("reaction.target", target.String()),
		attribute.String("reaction.kind", string(kind)),
		attribute.Int64("reaction.user_id", int64(actor.ID)),
	))
	defer span.End()

	info, err := s.resolve(ctx, actor, target)
	if err != nil {
		return dto.ReactionResult{}, err
	}

	description, err := boundedText(s.sanitizer, req.Description, "description", models.ReactionDescriptionMaxLength)
	if err != nil {
		return dto.ReactionResult{}, err
	}

	input := repository.SetReactionInput{
		UserID:      actor.ID,
		Target:      target,
		Kind:        kind,
		Description: description,
		At:          s.now().UTC(),
	}
	if target.Kind == models.TargetNote {
		input.ReportThreshold = s.threshold
	}

	outcome, err := s.reactions.SetReaction(ctx, input)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent first reaction by the same user won the insert; replay on top of it
		outcome, err = s.reactions.SetReaction(ctx, input)
	}
	if err != nil {
		span.RecordError(err)
		return dto.ReactionResult{}, translateStoreError(err, "set reaction")
	}

	result := dto.ReactionResult{TargetType: target.Kind, TargetID: target.ID}
	logger := s.logger.With().Str("target", target.String()).Uint("user_id", actor.ID).Str("kind", string(kind)).Logger()

	if outcome.TargetMissing {
		logger.Warn().Msg("reaction target vanished before counters were updated")
		return result, nil
	}

	result.Counters = outcome.Counters
	result.Deactivated = outcome.Deactivated
	if outcome.Final != nil {
		result.MyReaction = dto.NewReactionView(*outcome.Final)
	}

	observability.ReactionsTotal().WithLabelValues(string(target.Kind), string(kind), transitionLabel(outcome)).Inc()

	if len(outcome.Clamped) > 0 {
		s.reportDesync(ctx, logger, target, outcome.Clamped)
	}

	if outcome.Deactivated {
		s.cascadeDeactivation(ctx, info)
	}

	if target.Kind == models.TargetNote {
		s.applyLikeHooks(ctx, actor, info, outcome)
	}

	return result, nil
}

func (s *reactionService) MyReaction(ctx context.Context, actor Actor, target models.TargetRef) (dto.MyReactionResponse, error) {
	if _, err := s.resolve(ctx, actor, target); err != nil {
		return dto.MyReactionResponse{}, err
	}

	reaction, err := s.reactions.FindByUserAndTarget(ctx, actor.ID, target)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.MyReactionResponse{}, nil
	}
	if err != nil {
		return dto.MyReactionResponse{}, translateStoreError(err, "load reaction")
	}

	return dto.MyReactionResponse{HasReaction: true, Reaction: dto.NewReactionView(reaction)}, nil
}

// resolve loads the target and hides anything outside the caller's university or taken down.
func (s *reactionService) resolve(ctx context.Context, actor Actor, target models.TargetRef) (models.TargetInfo, error) {
	info, err := s.reactions.ResolveTarget(ctx, target)
	if err != nil {
		return models.TargetInfo{}, translateStoreError(err, target.String())
	}
	if info.UniversityID != actor.UniversityID || !info.Active {
		return models.TargetInfo{}, fmt.Errorf("%s: %w", target, ErrNotFound)
	}
	return info, nil
}

func (s *reactionService) reportDesync(ctx context.Context, logger zerolog.Logger, target models.TargetRef, clamped []string) {
	for _, column := range clamped {
		observability.CounterDesyncTotal().WithLabelValues(string(target.Kind), column).Inc()
	}

	event := logger.Warn().Strs("columns", clamped)
	if actual, err := s.reactions.CountByKind(ctx, target); err == nil {
		event = event.Int("stored_likes", actual.Likes).Int("stored_dislikes", actual.Dislikes).Int("stored_reports", actual.Reports)
	}
	event.Msg("counter decrement clamped at zero")
}

// cascadeDeactivation runs once per note, for the reaction that crossed the report threshold.
// Each step logs its failure and the next one still runs.
func (s *reactionService) cascadeDeactivation(ctx context.Context, info models.TargetInfo) {
	observability.NotesDeactivatedTotal().Inc()
	logger := s.logger.With().Uint("note_id", info.NoteID).Uint("owner_id", info.OwnerID).Logger()
	logger.Warn().Int("threshold", s.threshold).Msg("note deactivated by reports")

	if err := s.notes.AdjustCourseNoteCount(ctx, info.CourseID, -1); err != nil {
		logger.Error().Err(err).Uint("course_id", info.CourseID).Msg("failed to decrement course note count")
	}

	s.gamification.OnNoteRemoved(ctx, info.OwnerID)

	if s.activity != nil {
		if err := s.activity.Record(ctx, ActivityEntry{
			UniversityID: info.UniversityID,
			Action:       models.ActivityNoteAutoDeactivated,
			EntityType:   string(models.TargetNote),
			EntityID:     info.NoteID,
			Metadata:     map[string]interface{}{"threshold": s.threshold, "owner_id": info.OwnerID},
		}); err != nil {
			logger.Error().Err(err).Msg("failed to record deactivation")
		}
	}
}

func (s *reactionService) applyLikeHooks(ctx context.Context, actor Actor, info models.TargetInfo, outcome repository.ReactionOutcome) {
	wasLike := outcome.Previous != nil && *outcome.Previous == models.ReactionLike
	isLike := outcome.Final != nil && outcome.Final.Kind == models.ReactionLike

	switch {
	case isLike && !wasLike:
		s.gamification.OnLikeReceived(ctx, info.OwnerID)
		if s.notifier == nil {
			return
		}
		notifyActor := models.NotificationActor{UserID: actor.ID, Name: actor.Name}
		if err := s.notifier.NotifyLike(ctx, notifyActor, info.NoteID, info.OwnerID); err != nil {
			s.logger.Warn().Err(err).Uint("note_id", info.NoteID).Msg("failed to notify like")
		}
	case wasLike && !isLike:
		s.gamification.OnLikeRemoved(ctx, info.OwnerID)
	}
}

func transitionLabel(outcome repository.ReactionOutcome) string {
	switch {
	case outcome.Previous == nil:
		return "added"
	case outcome.Final == nil:
		return "removed"
	default:
		return "switched"
	}
}
