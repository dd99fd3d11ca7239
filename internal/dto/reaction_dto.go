package dto

import (
	"time"

	"github.com/noah-isme/unishare-api/internal/models"
)

// ReactionRequest carries the optional description attached to a reaction.
type ReactionRequest struct {
	Description string `json:"description" validate:"omitempty,max=200"`
}

// ReactionView is one user's reaction on a target.
type ReactionView struct {
	Type        models.ReactionKind `json:"type"`
	Description string              `json:"description,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// NewReactionView converts a stored reaction.
func NewReactionView(reaction models.Reaction) *ReactionView {
	return &ReactionView{Type: reaction.Kind, Description: reaction.Description, Timestamp: reaction.ReactedAt}
}

// ReactionResult reports the target's counters after a submission together with the caller's
// resulting reaction. MyReaction is nil when the submission toggled the reaction off.
type ReactionResult struct {
	TargetType models.TargetKind `json:"target_type"`
	TargetID   uint              `json:"target_id"`
	models.Counters
	MyReaction  *ReactionView `json:"my_reaction"`
	Deactivated bool          `json:"deactivated,omitempty"`
}

// MyReactionResponse is the caller's current reaction on a target, if any.
type MyReactionResponse struct {
	HasReaction bool          `json:"has_reaction"`
	Reaction    *ReactionView `json:"reaction"`
}
