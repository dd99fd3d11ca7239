package models

import (
	"fmt"
	"strings"
	"time"
)

// TargetKind discriminates what a reaction points at.
type TargetKind string

const (
	TargetNote    TargetKind = "note"
	TargetComment TargetKind = "comment"
)

// ReactionKind is one of the mutually exclusive reactions a user can hold on a target.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
	ReactionReport  ReactionKind = "report"
)

// ReactionDescriptionMaxLength bounds the optional free-text description.
const ReactionDescriptionMaxLength = 200

// Valid reports whether k is a known reaction kind.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionDislike, ReactionReport:
		return true
	}
	return false
}

// Column is the denormalised counter column fed by this kind.
func (k ReactionKind) Column() string {
	switch k {
	case ReactionLike:
		return "likes"
	case ReactionDislike:
		return "dislikes"
	case ReactionReport:
		return "reports"
	}
	return ""
}

// TargetRef identifies a reactable entity.
type TargetRef struct {
	Kind TargetKind
	ID   uint
}

// NoteTarget references a note.
func NoteTarget(id uint) TargetRef { return TargetRef{Kind: TargetNote, ID: id} }

// CommentTarget references a comment.
func CommentTarget(id uint) TargetRef { return TargetRef{Kind: TargetComment, ID: id} }

// ParseTargetKind accepts both the singular and the route form ("note", "notes").
func ParseTargetKind(raw string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "note", "notes":
		return TargetNote, nil
	case "comment", "comments":
		return TargetComment, nil
	}
	return "", fmt.Errorf("unknown target type %q", raw)
}

// Table is the table holding the target's counters.
func (t TargetRef) Table() string {
	if t.Kind == TargetComment {
		return "comments"
	}
	return "notes"
}

func (t TargetRef) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// TargetInfo is what the reaction flow needs to know about a resolved target.
type TargetInfo struct {
	Ref          TargetRef
	UniversityID uint
	OwnerID      uint
	NoteID       uint
	CourseID     uint
	Active       bool
}

// Reaction is the single like/dislike/report a user holds on a target.
type Reaction struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;uniqueIndex:idx_reactions_user_target,priority:1" json:"user_id"`
	TargetType  TargetKind   `gorm:"size:16;not null;uniqueIndex:idx_reactions_user_target,priority:2;index:idx_reactions_target,priority:1" json:"target_type"`
	TargetID    uint         `gorm:"not null;uniqueIndex:idx_reactions_user_target,priority:3;index:idx_reactions_target,priority:2" json:"target_id"`
	Kind        ReactionKind `gorm:"size:16;not null" json:"kind"`
	Description string       `gorm:"size:200" json:"description,omitempty"`
	ReactedAt   time.Time    `gorm:"not null" json:"reacted_at"`
}

// Counters mirrors the denormalised reaction counts on a note or comment.
type Counters struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
	Reports  int `json:"reports"`
}

// Get returns the counter for kind.
func (c Counters) Get(kind ReactionKind) int {
	switch kind {
	case ReactionLike:
		return c.Likes
	case ReactionDislike:
		return c.Dislikes
	case ReactionReport:
		return c.Reports
	}
	return 0
}

// CounterDelta is a signed adjustment per reaction kind.
type CounterDelta map[ReactionKind]int

// Empty reports whether the delta changes nothing.
func (d CounterDelta) Empty() bool {
	for _, v := range d {
		if v != 0 {
			return false
		}
	}
	return true
}
