package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/unishare-api/internal/models"
)

// AggregateInput folds one like or comment event into the owner's unread notification.
type AggregateInput struct {
	UserID  uint
	Type    string
	NoteID  uint
	Actor   models.NotificationActor
	Excerpt string
	At      time.Time
}

// NotificationRepository handles persistence for notification entities.
type NotificationRepository interface {
	UpsertAggregated(ctx context.Context, input AggregateInput) (models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	SetRead(ctx context.Context, id, userID uint, read bool) (models.Notification, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
	DeleteRead(ctx context.Context, userID uint) (int64, error)
	DeleteAll(ctx context.Context, userID uint) (int64, error)
	DeleteExpired(ctx context.Context, readBefore, unreadBefore time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// UpsertAggregated increments the unread (user, type, note) notification or starts a new one.
// Two first events racing for the same slot collide on the partial unique index; the loser
// is retried once and folds into the winner's row.
func (r *notificationRepository) UpsertAggregated(ctx context.Context, input AggregateInput) (models.Notification, error) {
	notification, err := r.upsertAggregated(ctx, input)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.upsertAggregated(ctx, input)
	}
	return notification, err
}

func (r *notificationRepository) upsertAggregated(ctx context.Context, input AggregateInput) (models.Notification, error) {
	var notification models.Notification

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		notification = models.Notification{}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND type = ? AND related_note_id = ? AND is_read = ?", input.UserID, input.Type, input.NoteID, false).
			Take(&notification).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			noteID := input.NoteID
			notification = models.Notification{
				UserID:        input.UserID,
				Type:          input.Type,
				RelatedNoteID: &noteID,
				LastComment:   input.Excerpt,
				Count:         1,
				LastUpdated:   input.At,
			}
			notification.PrependActor(input.Actor)
			return tx.Create(&notification).Error
		}
		if err != nil {
			return err
		}

		notification.Count++
		notification.PrependActor(input.Actor)
		notification.LastUpdated = input.At
		if input.Excerpt != "" {
			notification.LastComment = input.Excerpt
		}
		return tx.Save(&notification).Error
	})
	if err != nil {
		return models.Notification{}, err
	}

	return notification, nil
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	if err := query.
		Order("last_updated DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&total).Error
	return total, err
}

func (r *notificationRepository) SetRead(ctx context.Context, id, userID uint, read bool) (models.Notification, error) {
	db := r.db.WithContext(ctx)

	var notification models.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	if notification.IsRead == read {
		return notification, nil
	}

	if err := db.Model(&notification).UpdateColumn("is_read", read).Error; err != nil {
		return models.Notification{}, err
	}
	notification.IsRead = read

	return notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND is_read = ?", userID, true).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) DeleteAll(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// DeleteExpired drops read notifications untouched since readBefore and unread ones created
// before unreadBefore.
func (r *notificationRepository) DeleteExpired(ctx context.Context, readBefore, unreadBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(is_read = ? AND last_updated < ?) OR (is_read = ? AND created_at < ?)", true, readBefore, false, unreadBefore).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
