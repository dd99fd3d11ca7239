package models

import "time"

// CommentMaxLength bounds the comment body in characters.
const CommentMaxLength = 350

// Comment is a reply on a note. Counters are denormalised from the reactions table.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	NoteID    uint      `gorm:"index;not null" json:"note_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Text      string    `gorm:"size:350;not null" json:"text"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	Dislikes  int       `gorm:"not null;default:0" json:"dislikes"`
	Reports   int       `gorm:"not null;default:0" json:"reports"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
