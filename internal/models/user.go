package models

import "time"

// Role values carried by the bearer token.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// University scopes every user, note and course. Membership is decided by e-mail domain.
type University struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Domain    string    `gorm:"size:255;uniqueIndex;not null" json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserStats holds the per-user content counters used by badge predicates.
type UserStats struct {
	Notes         int `gorm:"not null;default:0" json:"notes"`
	Comments      int `gorm:"not null;default:0" json:"comments"`
	LikesReceived int `gorm:"not null;default:0" json:"likes_received"`
}

// User is the gamification-relevant projection of an account.
type User struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Name                 string    `gorm:"size:255;not null" json:"name"`
	Email                string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	UniversityID         uint      `gorm:"index;not null" json:"university_id"`
	Role                 string    `gorm:"size:32;not null;default:student" json:"role"`
	Score                int       `gorm:"not null;default:0;index" json:"score"`
	MonthlyScore         int       `gorm:"not null;default:0;index" json:"monthly_score"`
	Level                int       `gorm:"not null;default:1" json:"level"`
	Stats                UserStats `gorm:"embedded;embeddedPrefix:stat_" json:"stats"`
	NotificationsEnabled bool      `gorm:"not null;default:true" json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UserBadge records an awarded badge. Rows are never removed.
type UserBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge,priority:1" json:"user_id"`
	BadgeID   string    `gorm:"size:64;not null;uniqueIndex:idx_user_badges_user_badge,priority:2" json:"badge_id"`
	AwardedAt time.Time `gorm:"not null" json:"awarded_at"`
}

// GamificationReset marks a completed monthly score reset.
type GamificationReset struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Period  string    `gorm:"size:7;uniqueIndex;not null" json:"period"`
	ResetAt time.Time `gorm:"not null" json:"reset_at"`
	Users   int64     `json:"users"`
}
