package dto

import (
	"time"

	"github.com/noah-isme/unishare-api/internal/models"
)

// NotificationResponse represents an inbox entry returned to clients.
type NotificationResponse struct {
	ID            uint                       `json:"id"`
	Type          string                     `json:"type"`
	Message       string                     `json:"message"`
	RelatedNoteID *uint                      `json:"related_note_id,omitempty"`
	Count         int                        `json:"count"`
	LastActors    []models.NotificationActor `json:"last_actors"`
	LastComment   string                     `json:"last_comment,omitempty"`
	BadgeID       string                     `json:"badge_id,omitempty"`
	BadgeName     string                     `json:"badge_name,omitempty"`
	BadgeIcon     string                     `json:"badge_icon,omitempty"`
	NewLevel      *int                       `json:"new_level,omitempty"`
	IsRead        bool                       `json:"is_read"`
	LastUpdated   time.Time                  `json:"last_updated"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// NotificationListResponse is a page of notifications plus the caller's unread total.
type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int64                  `json:"unread_count"`
	Pagination  PaginationMeta         `json:"pagination"`
}

// NotificationBulkResponse reports how many notifications a bulk operation touched.
type NotificationBulkResponse struct {
	Affected int64 `json:"affected"`
}
