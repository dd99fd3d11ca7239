package models

import (
	"time"

	"gorm.io/datatypes"
)

// Moderation actions recorded in the activity log.
const (
	ActivityNoteHardDeleted     = "note.hard_deleted"
	ActivityNoteReactivated     = "note.reactivated"
	ActivityNoteAutoDeactivated = "note.auto_deactivated"
	ActivityCommentRemoved      = "comment.removed"
)

// ActivityLog is the audit trail of moderation actions. ActorID is nil for system actions
// such as report-driven deactivation.
type ActivityLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UniversityID uint              `gorm:"index;not null" json:"university_id"`
	ActorID      *uint             `json:"actor_id"`
	ActorRole    string            `gorm:"size:32;not null" json:"actor_role"`
	Action       string            `gorm:"size:64;not null;index" json:"action"`
	EntityType   string            `gorm:"size:32;not null" json:"entity_type"`
	EntityID     uint              `gorm:"not null" json:"entity_id"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
}
