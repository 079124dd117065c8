package models

import "gorm.io/datatypes"

// Progress is the authoritative per-student record for one course.
type Progress struct {
	Model
	UserID              uint                        `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"user"`
	CourseID            uint                        `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"course"`
	CompletedChapters   datatypes.JSONSlice[string] `json:"completedChapters"`
	LastAccessedChapter string                      `json:"lastAccessedChapter,omitempty"`
	Progress            float64                     `gorm:"not null;default:0" json:"progress"` // 0..100
}

func (Progress) TableName() string {
	return "progresses"
}

// EnrolledCourse pairs a course with the student's progress in it.
type EnrolledCourse struct {
	Course   Course    `json:"course"`
	Progress *Progress `json:"progress"`
}
