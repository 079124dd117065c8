package models

import (
	"time"

	"gorm.io/datatypes"
)

// Analytics is derived from a course's enrollments and chapters. It is
// recomputed on every enrollment, progress and chapter change.
type Analytics struct {
	TotalEnrollments  int                                `gorm:"not null;default:0" json:"totalEnrollments"`
	RecentEnrollments int                                `gorm:"not null;default:0" json:"recentEnrollments"` // last 7 days
	ActiveStudents    int                                `gorm:"not null;default:0" json:"activeStudents"`    // accessed in last 30 days
	AverageProgress   float64                            `gorm:"not null;default:0" json:"averageProgress"`
	EnrollmentHistory datatypes.JSONSlice[HistoryBucket] `json:"enrollmentHistory"`
	ChapterViews      datatypes.JSONSlice[ChapterView]   `json:"chapterViews"`
}

// HistoryBucket holds the enrollment total observed on a given day.
type HistoryBucket struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

type ChapterView struct {
	Chapter    string     `json:"chapter"`
	Views      int        `json:"views"`
	LastViewed *time.Time `json:"lastViewed"`
}

// StudentAnalytics is one row of a course analytics report.
type StudentAnalytics struct {
	UserID            uint       `json:"userId"`
	UserName          string     `json:"userName"`
	Email             string     `json:"email"`
	ChaptersCompleted int        `json:"chaptersCompleted"`
	CompletionRate    float64    `json:"completionRate"`
	EnrolledAt        time.Time  `json:"enrolledAt"`
	LastAccessed      *time.Time `json:"lastAccessed"`
}

type CourseAnalyticsReport struct {
	CourseID  uint               `json:"courseId"`
	Name      string             `json:"name"`
	Chapters  int                `json:"chapters"`
	Analytics Analytics          `json:"analytics"`
	Students  []StudentAnalytics `json:"students"`
}
