package dto

import (
	"time"

	"github.com/noah-isme/unishare-api/internal/models"
)

// CommentCreateRequest is the payload for posting a comment on a note.
type CommentCreateRequest struct {
	Text string `json:"text" validate:"required,min=1,max=350"`
}

// CommentResponse is the serialized form of a comment.
type CommentResponse struct {
	ID        uint            `json:"id"`
	NoteID    uint            `json:"note_id"`
	AuthorID  uint            `json:"author_id"`
	Text      string          `json:"text"`
	Counters  models.Counters `json:"counters"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewCommentResponse converts a comment model into its DTO.
func NewCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		NoteID:    comment.NoteID,
		AuthorID:  comment.AuthorID,
		Text:      comment.Text,
		Counters:  models.Counters{Likes: comment.Likes, Dislikes: comment.Dislikes, Reports: comment.Reports},
		CreatedAt: comment.CreatedAt,
	}
}

// NewCommentResponseSlice converts comments into DTOs.
func NewCommentResponseSlice(comments []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, NewCommentResponse(comment))
	}
	return out
}
