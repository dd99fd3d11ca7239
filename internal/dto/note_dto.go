package dto

import (
	"time"

	"github.com/noah-isme/unishare-api/internal/models"
)

// NoteCreateRequest describes a note upload. FileURL is ignored when a file is attached.
type NoteCreateRequest struct {
	Title       string `json:"title" form:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" form:"description" validate:"omitempty,max=2000"`
	CourseCode  string `json:"course_code" form:"course_code" validate:"required,min=2,max=32"`
	Instructor  string `json:"instructor" form:"instructor" validate:"omitempty,max=255"`
	Year        int    `json:"year" form:"year" validate:"omitempty,min=1900,max=3000"`
	Semester    string `json:"semester" form:"semester" validate:"required,oneof=Fall Spring Summer Winter"`
	FileURL     string `json:"file_url" form:"file_url" validate:"omitempty,url,max=1024"`
}

// NoteResponse is the serialized form of a note.
type NoteResponse struct {
	ID           uint            `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	CourseID     uint            `json:"course_id"`
	CourseCode   string          `json:"course_code,omitempty"`
	Instructor   string          `json:"instructor"`
	FileURL      string          `json:"file_url"`
	YearSemester string          `json:"year_semester"`
	OwnerID      uint            `json:"owner_id"`
	UniversityID uint            `json:"university_id"`
	Counters     models.Counters `json:"counters"`
	ViewCount    int             `json:"view_count"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewNoteResponse converts a note model into its DTO.
func NewNoteResponse(note models.Note) NoteResponse {
	return NoteResponse{
		ID:           note.ID,
		Title:        note.Title,
		Description:  note.Description,
		CourseID:     note.CourseID,
		Instructor:   note.Instructor,
		FileURL:      note.FileURL,
		YearSemester: note.YearSemester,
		OwnerID:      note.OwnerID,
		UniversityID: note.UniversityID,
		Counters:     models.Counters{Likes: note.Likes, Dislikes: note.Dislikes, Reports: note.Reports},
		ViewCount:    note.ViewCount,
		IsActive:     note.IsActive,
		CreatedAt:    note.CreatedAt,
		UpdatedAt:    note.UpdatedAt,
	}
}

// ReportedNoteListRequest filters the moderation listing.
type ReportedNoteListRequest struct {
	Page         int
	PageSize     int
	OnlyInactive bool
}

// NoteListResponse wraps a paginated list of notes.
type NoteListResponse struct {
	Items      []NoteResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}
