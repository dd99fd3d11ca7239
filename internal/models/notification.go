package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationBadge   = "badge"
	NotificationLevelUp = "level_up"
)

// Aggregation limits.
const (
	NotificationMaxActors       = 3
	NotificationExcerptMaxChars = 100
)

// NotificationActor is a snapshot of a user who triggered an aggregated notification.
type NotificationActor struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
}

// Notification is a per-user inbox entry. Like and comment entries aggregate while unread:
// at most one unread row exists per (user, type, related note).
type Notification struct {
	ID            uint                                   `gorm:"primaryKey" json:"id"`
	UserID        uint                                   `gorm:"not null;index:idx_notifications_user_read,priority:1;uniqueIndex:idx_notifications_unread_key,priority:1,where:is_read = false" json:"user_id"`
	Type          string                                 `gorm:"size:32;not null;uniqueIndex:idx_notifications_unread_key,priority:2" json:"type"`
	RelatedNoteID *uint                                  `gorm:"uniqueIndex:idx_notifications_unread_key,priority:3" json:"related_note_id,omitempty"`
	LastComment   string                                 `gorm:"size:100" json:"last_comment,omitempty"`
	BadgeID       string                                 `gorm:"size:64" json:"badge_id,omitempty"`
	BadgeName     string                                 `gorm:"size:128" json:"badge_name,omitempty"`
	BadgeIcon     string                                 `gorm:"size:64" json:"badge_icon,omitempty"`
	NewLevel      *int                                   `json:"new_level,omitempty"`
	Count         int                                    `gorm:"not null;default:1" json:"count"`
	LastActors    datatypes.JSONSlice[NotificationActor] `json:"last_actors"`
	IsRead        bool                                   `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	LastUpdated   time.Time                              `gorm:"not null;index" json:"last_updated"`
	CreatedAt     time.Time                              `gorm:"index" json:"created_at"`
}

// PrependActor records actor as the most recent one, keeping at most NotificationMaxActors.
// A repeat actor is moved to the front rather than duplicated.
func (n *Notification) PrependActor(actor NotificationActor) {
	actors := make([]NotificationActor, 0, NotificationMaxActors)
	actors = append(actors, actor)
	for _, existing := range n.LastActors {
		if len(actors) == NotificationMaxActors {
			break
		}
		if existing.UserID == actor.UserID {
			continue
		}
		actors = append(actors, existing)
	}
	n.LastActors = actors
}
