package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/unishare-api/internal/models"
)

// ActivityLogFilter narrows the audit trail. Zero values do not filter; From is
// inclusive and To exclusive.
type ActivityLogFilter struct {
	UniversityID uint
	Page         int
	PageSize     int
	ActorID      *uint
	Action       string
	EntityType   string
	EntityID     uint
	From         *time.Time
	To           *time.Time
}

// ActivityLogRepository persists the moderation audit trail. Entries are append-only.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Scopes(activityScope(filter))

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.ActivityLog{}, 0, nil
	}

	var entries []models.ActivityLog
	err := query.
		Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func activityScope(filter ActivityLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.UniversityID != 0 {
			db = db.Where("university_id = ?", filter.UniversityID)
		}
		if filter.ActorID != nil {
			db = db.Where("actor_id = ?", *filter.ActorID)
		}
		if filter.Action != "" {
			db = db.Where("action = ?", filter.Action)
		}
		if filter.EntityType != "" {
			db = db.Where("entity_type = ?", filter.EntityType)
			if filter.EntityID != 0 {
				db = db.Where("entity_id = ?", filter.EntityID)
			}
		}
		if filter.From != nil {
			db = db.Where("created_at >= ?", filter.From.UTC())
		}
		if filter.To != nil {
			db = db.Where("created_at < ?", filter.To.UTC())
		}
		return db
	}
}

// paginate applies offset paging; a non-positive size leaves the query unbounded.
func paginate(page, size int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if size <= 0 {
			return db
		}
		if page <= 0 {
			page = 1
		}
		return db.Offset((page - 1) * size).Limit(size)
	}
}
