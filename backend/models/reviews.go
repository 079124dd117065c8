package models

type Review struct {
	Model
	CourseID uint   `gorm:"not null;uniqueIndex:idx_review_course_user" json:"courseId"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_review_course_user" json:"user"`
	UserName string `json:"userName"`
	Rating   int    `gorm:"not null;check:rating>=1 AND rating<=5" json:"rating"`
	Text     string `json:"text"`
}
