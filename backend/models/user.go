package models

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	Model
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"` // stored lowercase
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:student" json:"role"` // student, admin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserCourse is the user's list of enrolled courses.
type UserCourse struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_course" json:"userId"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_user_course" json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
}
