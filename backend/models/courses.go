package models

import (
	"time"

	"gorm.io/datatypes"
)

type Category struct {
	Model
	Name          string        `gorm:"not null" json:"name"`
	Description   string        `json:"description"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

type Subcategory struct {
	Model
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CategoryID  uint      `gorm:"index;not null" json:"categoryId"`
	Category    *Category `json:"category,omitempty"`
}

type Course struct {
	Model
	Name          string       `gorm:"not null" json:"name"`
	Description   string       `gorm:"not null" json:"description"`
	CategoryID    uint         `gorm:"index;not null" json:"categoryId"`
	Category      *Category    `json:"category,omitempty"`
	SubcategoryID uint         `gorm:"index;not null" json:"subcategoryId"`
	Subcategory   *Subcategory `json:"subcategory,omitempty"`
	Thumbnail     string       `json:"thumbnail"`
	AdminID       uint         `gorm:"index" json:"admin"`
	// bumped on every write; updates compare-and-swap on it
	Revision    uint         `gorm:"not null;default:1" json:"revision"`
	Chapters    []Chapter    `json:"chapters"`
	Enrollments []Enrollment `json:"enrolledStudents"`
	Analytics   Analytics    `gorm:"embedded;embeddedPrefix:analytics_" json:"analytics"`
	Reviews     []Review     `json:"reviews,omitempty"`
}

type Chapter struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	CourseID    uint      `gorm:"index;not null" json:"courseId"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `gorm:"not null" json:"videoUrl"`
	Order       int       `gorm:"column:sort_order;not null" json:"order"`
	Duration    string    `json:"duration"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Enrollment struct {
	Model
	CourseID   uint               `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"courseId"`
	StudentID  uint               `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"student"`
	EnrolledAt time.Time          `gorm:"not null" json:"enrolledAt"`
	Progress   EnrollmentProgress `gorm:"embedded;embeddedPrefix:progress_" json:"progress"`
}

// EnrollmentProgress mirrors the student's Progress record inside the course.
type EnrollmentProgress struct {
	CompletedChapters   datatypes.JSONSlice[string] `json:"completedChapters"`
	LastAccessedChapter *string                     `json:"lastAccessedChapter"`
	LastAccessedAt      *time.Time                  `json:"lastAccessedAt"`
}

// HasCompleted reports whether chapterID is already in the completed set.
func (p EnrollmentProgress) HasCompleted(chapterID string) bool {
	for _, id := range p.CompletedChapters {
		if id == chapterID {
			return true
		}
	}
	return false
}

// CourseSummary is a catalog search row.
type CourseSummary struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	CategoryID  uint      `json:"categoryId"`
	Enrollments int       `json:"enrollments"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	CreatedAt   time.Time `json:"createdAt"`
}
