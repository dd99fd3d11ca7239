package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/observability"
	"github.com/noah-isme/unishare-api/internal/repository"
)

// EventNotification is the realtime event name carrying a notification.
const EventNotification = "notification"

const defaultNotificationRetention = 30 * 24 * time.Hour

// NotificationService records, aggregates and delivers user notifications.
type NotificationService interface {
	AchievementNotifier
	NotifyLike(ctx context.Context, actor models.NotificationActor, noteID, ownerID uint) error
	NotifyComment(ctx context.Context, actor models.NotificationActor, excerpt string, noteID, ownerID uint) error

	List(ctx context.Context, userID uint, page, pageSize int) (dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, userID, id uint) (dto.NotificationResponse, error)
	MarkUnread(ctx context.Context, userID, id uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
	DeleteRead(ctx context.Context, userID uint) (int64, error)
	DeleteAll(ctx context.Context, userID uint) (int64, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type notificationService struct {
	repo      repository.NotificationRepository
	users     repository.UserRepository
	transport Transport
	retention time.Duration
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewNotificationService constructs a notification service. transport may be nil.
func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, transport Transport, retention time.Duration, logger zerolog.Logger) NotificationService {
	if retention <= 0 {
		retention = defaultNotificationRetention
	}

	return &notificationService{
		repo:      repo,
		users:     users,
		transport: transport,
		retention: retention,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/unishare-api/internal/service/notification"),
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

func (s *notificationService) NotifyLike(ctx context.Context, actor models.NotificationActor, noteID, ownerID uint) error {
	return s.aggregate(ctx, repository.AggregateInput{
		UserID: ownerID,
		Type:   models.NotificationLike,
		NoteID: noteID,
		Actor:  actor,
	})
}

func (s *notificationService) NotifyComment(ctx context.Context, actor models.NotificationActor, excerpt string, noteID, ownerID uint) error {
	return s.aggregate(ctx, repository.AggregateInput{
		UserID:  ownerID,
		Type:    models.NotificationComment,
		NoteID:  noteID,
		Actor:   actor,
		Excerpt: s.excerpt(excerpt),
	})
}

func (s *notificationService) aggregate(ctx context.Context, input repository.AggregateInput) error {
	if input.Actor.UserID == input.UserID {
		return nil
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.aggregate", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(input.UserID)),
		attribute.String("notification.type", input.Type),
		attribute.Int64("notification.note_id", int64(input.NoteID)),
	))
	defer span.End()

	enabled, err := s.enabled(spanCtx, input.UserID)
	if err != nil || !enabled {
		return err
	}

	input.At = s.now().UTC()
	notification, err := s.repo.UpsertAggregated(spanCtx, input)
	if err != nil {
		span.RecordError(err)
		return translateStoreError(err, "aggregate notification")
	}

	mode := "aggregated"
	if notification.Count == 1 {
		mode = "created"
	}
	observability.NotificationsTotal().WithLabelValues(input.Type, mode).Inc()

	s.push(spanCtx, notification)
	return nil
}

func (s *notificationService) NotifyBadge(ctx context.Context, userID uint, badge BadgeDefinition) error {
	return s.insert(ctx, &models.Notification{
		UserID:    userID,
		Type:      models.NotificationBadge,
		BadgeID:   badge.ID,
		BadgeName: badge.Name,
		BadgeIcon: badge.Icon,
	})
}

func (s *notificationService) NotifyLevelUp(ctx context.Context, userID uint, level Level) error {
	number := level.Number
	return s.insert(ctx, &models.Notification{
		UserID:    userID,
		Type:      models.NotificationLevelUp,
		NewLevel:  &number,
		BadgeName: level.Name,
	})
}

func (s *notificationService) insert(ctx context.Context, notification *models.Notification) error {
	enabled, err := s.enabled(ctx, notification.UserID)
	if err != nil || !enabled {
		return err
	}

	notification.Count = 1
	notification.LastUpdated = s.now().UTC()
	if err := s.repo.Create(ctx, notification); err != nil {
		return translateStoreError(err, "create notification")
	}
	observability.NotificationsTotal().WithLabelValues(notification.Type, "created").Inc()

	s.push(ctx, *notification)
	return nil
}

func (s *notificationService) enabled(ctx context.Context, userID uint) (bool, error) {
	enabled, err := s.users.NotificationsEnabled(ctx, userID)
	if err != nil {
		return false, translateStoreError(err, "notification preference")
	}
	return enabled, nil
}

// push is fire-and-forget: delivery errors are logged and never returned.
func (s *notificationService) push(ctx context.Context, notification models.Notification) {
	if s.transport == nil {
		return
	}
	if err := s.transport.EmitToUser(ctx, notification.UserID, EventNotification, newNotificationResponse(notification)); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", notification.UserID).Uint("notification_id", notification.ID).Msg("failed to push notification")
	}
}

func (s *notificationService) excerpt(text string) string {
	clean := plainText(s.sanitizer, text)
	if utf8.RuneCountInString(clean) <= models.NotificationExcerptMaxChars {
		return clean
	}
	runes := []rune(clean)
	return string(runes[:models.NotificationExcerptMaxChars])
}

func (s *notificationService) List(ctx context.Context, userID uint, page, pageSize int) (dto.NotificationListResponse, error) {
	page = maxInt(page, 1)
	pageSize = clampPageSize(pageSize)

	items, total, err := s.repo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return dto.NotificationListResponse{}, translateStoreError(err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return dto.NotificationListResponse{}, translateStoreError(err, "count unread notifications")
	}

	responses := make([]dto.NotificationResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, newNotificationResponse(item))
	}

	return dto.NotificationListResponse{
		Items:       responses,
		UnreadCount: unread,
		Pagination:  dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uint) (dto.NotificationResponse, error) {
	return s.setRead(ctx, userID, id, true)
}

// MarkUnread fails with ErrConflict when another unread notification already holds the
// same aggregation slot.
func (s *notificationService) MarkUnread(ctx context.Context, userID, id uint) (dto.NotificationResponse, error) {
	return s.setRead(ctx, userID, id, false)
}

func (s *notificationService) setRead(ctx context.Context, userID, id uint, read bool) (dto.NotificationResponse, error) {
	notification, err := s.repo.SetRead(ctx, id, userID, read)
	if err != nil {
		return dto.NotificationResponse{}, translateStoreError(err, "update notification")
	}
	return newNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, translateStoreError(err, "mark all notifications read")
	}
	return affected, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return translateStoreError(err, "delete notification")
	}
	return nil
}

func (s *notificationService) DeleteRead(ctx context.Context, userID uint) (int64, error) {
	affected, err := s.repo.DeleteRead(ctx, userID)
	if err != nil {
		return 0, translateStoreError(err, "delete read notifications")
	}
	return affected, nil
}

func (s *notificationService) DeleteAll(ctx context.Context, userID uint) (int64, error) {
	affected, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, translateStoreError(err, "delete notifications")
	}
	return affected, nil
}

// PurgeExpired removes read notifications idle past the retention window and unread ones
// created before it.
func (s *notificationService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)

	removed, err := s.repo.DeleteExpired(ctx, cutoff, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}

	s.logger.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("expired notifications purged")
	return removed, nil
}

func newNotificationResponse(model models.Notification) dto.NotificationResponse {
	actors := []models.NotificationActor(model.LastActors)
	if actors == nil {
		actors = []models.NotificationActor{}
	}
	return dto.NotificationResponse{
		ID:            model.ID,
		Type:          model.Type,
		Message:       notificationMessage(model),
		RelatedNoteID: model.RelatedNoteID,
		Count:         model.Count,
		LastActors:    actors,
		LastComment:   model.LastComment,
		BadgeID:       model.BadgeID,
		BadgeName:     model.BadgeName,
		BadgeIcon:     model.BadgeIcon,
		NewLevel:      model.NewLevel,
		IsRead:        model.IsRead,
		LastUpdated:   model.LastUpdated,
		CreatedAt:     model.CreatedAt,
	}
}

func notificationMessage(model models.Notification) string {
	actor := "Someone"
	if len(model.LastActors) > 0 && strings.TrimSpace(model.LastActors[0].Name) != "" {
		actor = model.LastActors[0].Name
	}

	switch model.Type {
	case models.NotificationLike:
		if model.Count <= 1 {
			return actor + " liked your note"
		}
		return fmt.Sprintf("Your note was liked by %d people", model.Count)
	case models.NotificationComment:
		if model.Count <= 1 {
			return actor + " commented on your note"
		}
		return fmt.Sprintf("Your note received comments from %d people", model.Count)
	case models.NotificationBadge:
		return strings.TrimSpace(fmt.Sprintf("You earned the %s badge %s", model.BadgeName, model.BadgeIcon))
	case models.NotificationLevelUp:
		if model.NewLevel != nil {
			return fmt.Sprintf("You reached level %d: %s", *model.NewLevel, model.BadgeName)
		}
		return "You reached a new level"
	}
	return "You have a new notification"
}
