package services

import (
	"context"
	"strings"
	"time"

	"lms/backend/models"
	"lms/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnrollmentService owns enrollment, progress tracking and course analytics.
type EnrollmentService struct {
	db      *gorm.DB
	log     *utils.Logger
	retries int

	Now func() time.Time
}

func NewEnrollmentService(db *gorm.DB, log *utils.Logger, retries int) *EnrollmentService {
	return &EnrollmentService{db: db, log: log, retries: retries, Now: time.Now}
}

// Enroll adds the student to the course. The enrollment, the user's course
// link, a zeroed progress record and the recomputed analytics commit together
// or not at all.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID uint, rawCourseID string) (*models.Course, error) {
	courseID, ok := ParseID(rawCourseID)
	if !ok {
		return nil, ErrInvalidCourseID
	}

	var course *models.Course
	err := runInTx(ctx, s.db, s.retries, func(tx *gorm.DB) error {
		c, err := s.enroll(tx, studentID, courseID)
		course = c
		return err
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.log.Error("enrollment aborted", "courseID", courseID, "studentID", studentID, "error", err)
		return nil, errors.Wrapf(ErrTransactionAborted, "enroll in course %d: %v", courseID, err)
	}

	s.log.Info("student enrolled", "courseID", courseID, "studentID", studentID,
		"totalEnrollments", course.Analytics.TotalEnrollments)
	return course, nil
}

func (s *EnrollmentService) enroll(tx *gorm.DB, studentID, courseID uint) (*models.Course, error) {
	now := s.Now()

	course, err := loadCourse(tx, courseID)
	if err != nil {
		return nil, err
	}
	if findEnrollment(course.Enrollments, studentID) >= 0 {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := models.Enrollment{
		CourseID:   courseID,
		StudentID:  studentID,
		EnrolledAt: now,
		Progress: models.EnrollmentProgress{
			CompletedChapters: datatypes.JSONSlice[string]{},
		},
	}
	if err := tx.Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, errors.Wrap(err, "create enrollment")
	}
	course.Enrollments = append(course.Enrollments, enrollment)

	var user models.User
	if err := tx.First(&user, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "load user")
	}

	var linked int64
	if err := tx.Model(&models.UserCourse{}).
		Where("user_id = ? AND course_id = ?", studentID, courseID).
		Count(&linked).Error; err != nil {
		return nil, errors.Wrap(err, "check user courses")
	}
	if linked == 0 {
		if err := tx.Create(&models.UserCourse{UserID: studentID, CourseID: courseID}).Error; err != nil {
			return nil, errors.Wrap(err, "link course to user")
		}
	}

	progress := models.Progress{
		UserID:            studentID,
		CourseID:          courseID,
		CompletedChapters: datatypes.JSONSlice[string]{},
	}
	if err := tx.Create(&progress).Error; err != nil {
		return nil, errors.Wrap(err, "create progress record")
	}

	course.Analytics = RecomputeAnalytics(course, now)
	if err := updateCourseCAS(tx, course, analyticsColumns(course.Analytics)); err != nil {
		return nil, err
	}
	return course, nil
}

// RecordProgress marks chapterID as completed for the student. The progress
// record, the enrollment mirror, the chapter view counter and the analytics
// are written in one transaction.
func (s *EnrollmentService) RecordProgress(ctx context.Context, studentID uint, rawCourseID, chapterID string) (*models.Progress, error) {
	courseID, ok := ParseID(rawCourseID)
	if !ok {
		return nil, ErrInvalidCourseID
	}
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return nil, fieldError("chapterId", "chapterId is a required field")
	}

	var progress models.Progress
	err := runInTx(ctx, s.db, s.retries, func(tx *gorm.DB) error {
		p, err := s.recordProgress(tx, studentID, courseID, chapterID)
		if p != nil {
			progress = *p
		}
		return err
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "record progress in course %d", courseID)
	}

	s.log.Debug("progress recorded", "courseID", courseID, "studentID", studentID,
		"chapterID", chapterID, "progress", progress.Progress)
	return &progress, nil
}

func (s *EnrollmentService) recordProgress(tx *gorm.DB, studentID, courseID uint, chapterID string) (*models.Progress, error) {
	course, err := loadCourse(tx, courseID)
	if err != nil {
		return nil, err
	}
	idx := findEnrollment(course.Enrollments, studentID)
	if idx < 0 {
		return nil, ErrNotEnrolled
	}
	if !hasChapter(course.Chapters, chapterID) {
		return nil, ErrChapterNotFound
	}

	var progress models.Progress
	err = tx.Where("user_id = ? AND course_id = ?", studentID, courseID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("progress record missing for enrollment", "courseID", courseID, "studentID", studentID)
		return nil, ErrProgressRecordMissing
	}
	if err != nil {
		return nil, errors.Wrap(err, "load progress")
	}

	now := s.Now()
	enrollment := &course.Enrollments[idx]
	if !enrollment.Progress.HasCompleted(chapterID) {
		enrollment.Progress.CompletedChapters = append(enrollment.Progress.CompletedChapters, chapterID)
	}
	accessedChapter, accessedAt := chapterID, now
	enrollment.Progress.LastAccessedChapter = &accessedChapter
	enrollment.Progress.LastAccessedAt = &accessedAt
	if err := tx.Model(enrollment).Updates(map[string]interface{}{
		"progress_completed_chapters":    enrollment.Progress.CompletedChapters,
		"progress_last_accessed_chapter": accessedChapter,
		"progress_last_accessed_at":      accessedAt,
	}).Error; err != nil {
		return nil, errors.Wrap(err, "update enrollment progress")
	}

	progress.CompletedChapters = append(datatypes.JSONSlice[string]{}, enrollment.Progress.CompletedChapters...)
	progress.LastAccessedChapter = chapterID
	progress.Progress = ProgressPercent(progress.CompletedChapters, course.Chapters)
	if err := tx.Save(&progress).Error; err != nil {
		return nil, errors.Wrap(err, "save progress")
	}

	course.Analytics.ChapterViews = countChapterView(course.Analytics.ChapterViews, chapterID, now)
	course.Analytics = RecomputeAnalytics(course, now)
	if err := updateCourseCAS(tx, course, analyticsColumns(course.Analytics)); err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetProgress returns the student's progress record for a course.
func (s *EnrollmentService) GetProgress(ctx context.Context, studentID uint, rawCourseID string) (*models.Progress, error) {
	courseID, ok := ParseID(rawCourseID)
	if !ok {
		return nil, ErrInvalidCourseID
	}
	db := s.db.WithContext(ctx)

	var course models.Course
	if err := db.Select("id").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, errors.Wrap(err, "load course")
	}

	var progress models.Progress
	err := db.Where("user_id = ? AND course_id = ?", studentID, courseID).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "load progress")
	}

	var enrolled int64
	if err := db.Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&enrolled).Error; err != nil {
		return nil, errors.Wrap(err, "check enrollment")
	}
	if enrolled == 0 {
		return nil, ErrNotEnrolled
	}
	return nil, ErrProgressRecordMissing
}

// ListEnrolledCourses returns the student's courses with their progress, newest enrollment first.
func (s *EnrollmentService) ListEnrolledCourses(ctx context.Context, studentID uint) ([]models.EnrolledCourse, error) {
	db := s.db.WithContext(ctx)

	var links []models.UserCourse
	if err := db.Where("user_id = ?", studentID).Order("created_at DESC, id DESC").Find(&links).Error; err != nil {
		return nil, errors.Wrap(err, "list user courses")
	}
	if len(links) == 0 {
		return []models.EnrolledCourse{}, nil
	}
	ids := make([]uint, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.CourseID)
	}

	var courses []models.Course
	if err := db.Preload("Category").Preload("Subcategory").Preload("Chapters", orderedChapters).
		Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "load enrolled courses")
	}
	byID := make(map[uint]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	var records []models.Progress
	if err := db.Where("user_id = ? AND course_id IN ?", studentID, ids).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "load progress records")
	}
	progressByCourse := make(map[uint]*models.Progress, len(records))
	for i := range records {
		progressByCourse[records[i].CourseID] = &records[i]
	}

	out := make([]models.EnrolledCourse, 0, len(ids))
	for _, id := range ids {
		course, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, models.EnrolledCourse{Course: course, Progress: progressByCourse[id]})
	}
	return out, nil
}

// AnalyticsReport returns the stored analytics of a course with a per-student breakdown.
func (s *EnrollmentService) AnalyticsReport(ctx context.Context, rawCourseID string) (*models.CourseAnalyticsReport, error) {
	courseID, ok := ParseID(rawCourseID)
	if !ok {
		return nil, ErrInvalidCourseID
	}
	db := s.db.WithContext(ctx)

	course, err := loadCourse(db, courseID)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]uint, 0, len(course.Enrollments))
	for _, e := range course.Enrollments {
		studentIDs = append(studentIDs, e.StudentID)
	}
	users := map[uint]models.User{}
	if len(studentIDs) > 0 {
		var found []models.User
		if err := db.Where("id IN ?", studentIDs).Find(&found).Error; err != nil {
			return nil, errors.Wrap(err, "load students")
		}
		for _, u := range found {
			users[u.ID] = u
		}
	}

	report := &models.CourseAnalyticsReport{
		CourseID:  course.ID,
		Name:      course.Name,
		Chapters:  len(course.Chapters),
		Analytics: course.Analytics,
		Students:  make([]models.StudentAnalytics, 0, len(course.Enrollments)),
	}
	for _, e := range course.Enrollments {
		u := users[e.StudentID]
		report.Students = append(report.Students, models.StudentAnalytics{
			UserID:            e.StudentID,
			UserName:          u.Name,
			Email:             u.Email,
			ChaptersCompleted: CompletedChapterCount(e.Progress.CompletedChapters, course.Chapters),
			CompletionRate:    ProgressPercent(e.Progress.CompletedChapters, course.Chapters),
			EnrolledAt:        e.EnrolledAt,
			LastAccessed:      e.Progress.LastAccessedAt,
		})
	}
	return report, nil
}

// RefreshAnalytics recomputes every course's analytics so the time windows
// stay current for courses nobody touched. Courses that changed underneath
// are skipped; their writer already refreshed them.
func (s *EnrollmentService) RefreshAnalytics(ctx context.Context) (int, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Course{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, errors.Wrap(err, "list courses")
	}

	refreshed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			course, err := loadCourse(tx, id)
			if err != nil {
				return err
			}
			course.Analytics = RecomputeAnalytics(course, s.Now())
			return updateCourseCAS(tx, course, analyticsColumns(course.Analytics))
		})
		switch {
		case err == nil:
			refreshed++
		case errors.Is(err, ErrRevisionConflict), errors.Is(err, ErrCourseNotFound):
			s.log.Debug("skipping analytics refresh", "courseID", id, "reason", err)
		default:
			return refreshed, errors.Wrapf(err, "refresh analytics for course %d", id)
		}
	}
	return refreshed, nil
}
