package services

import (
	"lms/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func orderedChapters(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, created_at ASC")
}

func orderedEnrollments(db *gorm.DB) *gorm.DB {
	return db.Order("enrolled_at ASC, id ASC")
}

// loadCourse reads a course with its chapters and enrollments.
func loadCourse(tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := tx.Preload("Chapters", orderedChapters).
		Preload("Enrollments", orderedEnrollments).
		First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load course %d", id)
	}
	return &course, nil
}

// updateCourseCAS writes fields only if nobody bumped the revision since the
// course was read. A lost race returns ErrRevisionConflict.
func updateCourseCAS(tx *gorm.DB, course *models.Course, fields map[string]interface{}) error {
	fields["revision"] = gorm.Expr("revision + 1")
	res := tx.Model(&models.Course{}).
		Where("id = ? AND revision = ?", course.ID, course.Revision).
		Updates(fields)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update course %d", course.ID)
	}
	if res.RowsAffected == 0 {
		return ErrRevisionConflict
	}
	course.Revision++
	return nil
}

// deleteCourses removes courses and everything that hangs off them.
func deleteCourses(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	dependents := []interface{}{
		&models.Chapter{},
		&models.Enrollment{},
		&models.Progress{},
		&models.Review{},
		&models.UserCourse{},
	}
	for _, model := range dependents {
		if err := tx.Where("course_id IN ?", ids).Delete(model).Error; err != nil {
			return errors.Wrap(err, "delete course dependents")
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Course{}).Error; err != nil {
		return errors.Wrap(err, "delete courses")
	}
	return nil
}

func findEnrollment(enrollments []models.Enrollment, studentID uint) int {
	for i := range enrollments {
		if enrollments[i].StudentID == studentID {
			return i
		}
	}
	return -1
}

func hasChapter(chapters []models.Chapter, chapterID string) bool {
	for _, ch := range chapters {
		if ch.ID == chapterID {
			return true
		}
	}
	return false
}

// recomputeProgressRows rewrites the stored percentage of every enrolled
// student after the course's chapter list changed.
func recomputeProgressRows(tx *gorm.DB, course *models.Course) error {
	for _, e := range course.Enrollments {
		err := tx.Model(&models.Progress{}).
			Where("user_id = ? AND course_id = ?", e.StudentID, course.ID).
			Update("progress", ProgressPercent(e.Progress.CompletedChapters, course.Chapters)).Error
		if err != nil {
			return errors.Wrapf(err, "recompute progress of student %d", e.StudentID)
		}
	}
	return nil
}
