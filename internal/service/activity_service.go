package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/repository"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID           uint
	UniversityID uint
	Role         string
	Name         string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.Role, models.RoleAdmin)
}

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	UniversityID uint
	ActorID      *uint
	ActorRole    string
	Action       string
	EntityType   string
	EntityID     uint
	Metadata     map[string]interface{}
}

// ActivityRecorder records moderation actions.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivityService exposes the moderation audit trail.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return invalidInput("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return invalidInput("entity type is required")
	}

	model := models.ActivityLog{
		UniversityID: entry.UniversityID,
		ActorID:      entry.ActorID,
		ActorRole:    normalizeRole(entry.ActorRole),
		Action:       strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType:   strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:     entry.EntityID,
		Metadata:     sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist activity log")
		return fmt.Errorf("record activity: %w", err)
	}

	return nil
}

// List returns the audit trail of the admin's university.
func (s *activityService) List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if !actor.IsAdmin() {
		return dto.ActivityListResponse{}, ErrForbidden
	}

	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)
	filter := repository.ActivityLogFilter{
		UniversityID: actor.UniversityID,
		Page:         page,
		PageSize:     pageSize,
		Action:       strings.TrimSpace(req.Action),
		EntityType:   strings.TrimSpace(req.EntityType),
		EntityID:     req.EntityID,
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return dto.ActivityListResponse{}, invalidInput("activity range ends before it starts")
	}
	filter.From = req.From
	filter.To = req.To

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, translateStoreError(err, "list activity")
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}

	return dto.ActivityListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}
