package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ReportDeactivationThreshold is the report count at which a note is taken down.
const ReportDeactivationThreshold = 15

// Character limits of the note's free-text columns.
const (
	NoteTitleMaxLength      = 255
	NoteInstructorMaxLength = 255
)

// Course groups notes of one university under a normalised code.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;uniqueIndex:idx_courses_university_code,priority:1" json:"university_id"`
	Code         string    `gorm:"size:32;not null;uniqueIndex:idx_courses_university_code,priority:2" json:"code"`
	NoteCount    int       `gorm:"not null;default:0" json:"note_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeCourseCode upper-cases the code and strips whitespace and hyphens ("cs-101 a" -> "CS101A").
func NormalizeCourseCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Note is an uploaded course note. Counters are denormalised from the reactions table.
type Note struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	CourseID     uint      `gorm:"index;not null" json:"course_id"`
	Instructor   string    `gorm:"size:255" json:"instructor"`
	FileURL      string    `gorm:"size:1024;not null" json:"file_url"`
	YearSemester string    `gorm:"size:64" json:"year_semester"`
	OwnerID      uint      `gorm:"index;not null" json:"owner_id"`
	UniversityID uint      `gorm:"index;not null" json:"university_id"`
	Likes        int       `gorm:"not null;default:0" json:"likes"`
	Dislikes     int       `gorm:"not null;default:0" json:"dislikes"`
	Reports      int       `gorm:"not null;default:0;index" json:"reports"`
	ViewCount    int       `gorm:"not null;default:0" json:"view_count"`
	IsActive     bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FormatYearSemester renders the academic period shown on a note, e.g. "2024-2025 Fall".
func FormatYearSemester(year int, semester string) string {
	semester = strings.TrimSpace(semester)
	if year <= 0 {
		return semester
	}
	return strings.TrimSpace(fmt.Sprintf("%d-%d %s", year, year+1, semester))
}
