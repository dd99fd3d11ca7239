package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/unishare-api/internal/models"
)

// StatField names a gamification stat counter.
type StatField string

const (
	StatNotes         StatField = "notes"
	StatComments      StatField = "comments"
	StatLikesReceived StatField = "likes_received"
)

var statColumns = map[StatField]string{
	StatNotes:         "stat_notes",
	StatComments:      "stat_comments",
	StatLikesReceived: "stat_likes_received",
}

// LeaderboardFilter narrows leaderboard queries.
type LeaderboardFilter struct {
	UniversityID uint
	Monthly      bool
	Limit        int
}

// UserRepository persists the gamification state of users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	AdjustScore(ctx context.Context, id uint, delta int, includeMonthly bool) (models.User, error)
	AdjustStat(ctx context.Context, id uint, field StatField, delta int) (models.User, error)
	SetLevel(ctx context.Context, id uint, from, to int) (bool, error)
	AwardBadge(ctx context.Context, id uint, badgeID string, at time.Time) (bool, error)
	ListBadges(ctx context.Context, id uint) ([]models.UserBadge, error)
	ResetMonthlyScores(ctx context.Context, period string, at time.Time) (int64, bool, error)
	Leaderboard(ctx context.Context, filter LeaderboardFilter) ([]models.User, error)
	NotificationsEnabled(ctx context.Context, id uint) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) AdjustScore(ctx context.Context, id uint, delta int, includeMonthly bool) (models.User, error) {
	updates := map[string]interface{}{"score": clampedAdd("score", delta)}
	if includeMonthly {
		updates["monthly_score"] = clampedAdd("monthly_score", delta)
	}

	return r.adjust(ctx, id, updates)
}

func (r *userRepository) AdjustStat(ctx context.Context, id uint, field StatField, delta int) (models.User, error) {
	column, ok := statColumns[field]
	if !ok {
		return models.User{}, fmt.Errorf("unknown stat field %q", field)
	}

	return r.adjust(ctx, id, map[string]interface{}{column: clampedAdd(column, delta)})
}

func (r *userRepository) adjust(ctx context.Context, id uint, updates map[string]interface{}) (models.User, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.User{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return models.User{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.User{}, gorm.ErrRecordNotFound
	}

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SetLevel moves the user from one level to another and reports whether this call did it.
func (r *userRepository) SetLevel(ctx context.Context, id uint, from, to int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND level = ?", id, from).
		UpdateColumn("level", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userRepository) AwardBadge(ctx context.Context, id uint, badgeID string, at time.Time) (bool, error) {
	badge := models.UserBadge{UserID: id, BadgeID: badgeID, AwardedAt: at}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&badge)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

func (r *userRepository) ListBadges(ctx context.Context, id uint) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		Order("awarded_at ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}

	return badges, nil
}

// ResetMonthlyScores zeroes every monthly score once per period. A repeated call for an
// already recorded period is a no-op and reports applied=false.
func (r *userRepository) ResetMonthlyScores(ctx context.Context, period string, at time.Time) (int64, bool, error) {
	var (
		affected int64
		applied  bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		marker := models.GamificationReset{Period: period, ResetAt: at}
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&marker)
		if created.Error != nil {
			return created.Error
		}
		if created.RowsAffected == 0 {
			return nil
		}
		applied = true

		res := tx.Model(&models.User{}).Where("monthly_score <> ?", 0).UpdateColumn("monthly_score", 0)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected

		return tx.Model(&models.GamificationReset{}).Where("id = ?", marker.ID).UpdateColumn("users", affected).Error
	})
	if err != nil {
		return 0, false, err
	}

	return affected, applied, nil
}

func (r *userRepository) Leaderboard(ctx context.Context, filter LeaderboardFilter) ([]models.User, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	column := "score"
	if filter.Monthly {
		column = "monthly_score"
	}

	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.UniversityID != 0 {
		query = query.Where("university_id = ?", filter.UniversityID)
	}

	var users []models.User
	if err := query.Order(column + " DESC").Order("id ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) NotificationsEnabled(ctx context.Context, id uint) (bool, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id", "notifications_enabled").First(&user, id).Error; err != nil {
		return false, err
	}
	return user.NotificationsEnabled, nil
}
