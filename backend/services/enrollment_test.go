package services

import (
	"context"
	"testing"
	"time"

	"lms/backend/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnrollCreatesEnrollmentProgressAndAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "alice")
	_, sub := env.category(t, "Programming")
	course := env.course(t, sub, 3)

	enrolled, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	require.Len(t, enrolled.Enrollments, 1)
	assert.Equal(t, student.ID, enrolled.Enrollments[0].StudentID)
	assert.Equal(t, 1, enrolled.Analytics.TotalEnrollments)
	assert.Equal(t, 1, enrolled.Analytics.RecentEnrollments)

	stored := env.reload(t, course.ID)
	assert.Equal(t, uint(2), stored.Revision)
	assert.Equal(t, 1, stored.Analytics.TotalEnrollments)
	require.Len(t, stored.Analytics.EnrollmentHistory, 1)
	assert.Equal(t, 1, stored.Analytics.EnrollmentHistory[0].Count)
	assert.Empty(t, stored.Enrollments[0].Progress.CompletedChapters)

	var progress models.Progress
	require.NoError(t, env.db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&progress).Error)
	assert.Zero(t, progress.Progress)
	assert.Empty(t, progress.CompletedChapters)

	assert.EqualValues(t, 1, env.count(t, &models.UserCourse{}, "user_id = ? AND course_id = ?", student.ID, course.ID))
}

func TestEnrollRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "bob")
	_, sub := env.category(t, "Design")
	course := env.course(t, sub, 1)

	for _, raw := range []string{"abc", "0", "-4", ""} {
		_, err := env.enrollments.Enroll(ctx, student.ID, raw)
		assert.ErrorIs(t, err, ErrInvalidCourseID, raw)
	}

	_, err := env.enrollments.Enroll(ctx, student.ID, "9999")
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	_, err = env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = env.enrollments.Enroll(ctx, 4242, idString(course.ID))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.EqualValues(t, 0, env.count(t, &models.Enrollment{}, "student_id = ?", 4242))

	stored := env.reload(t, course.ID)
	assert.Len(t, stored.Enrollments, 1)
	assert.Equal(t, 1, stored.Analytics.TotalEnrollments)
}

func TestEnrollRollsBackWhenProgressInsertFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "carol")
	_, sub := env.category(t, "Math")
	course := env.course(t, sub, 2)

	err := env.db.Callback().Create().Before("gorm:create").Register("test:fail_progress", func(tx *gorm.DB) {
		if tx.Statement.Table == "progresses" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransactionAborted)

	assert.EqualValues(t, 0, env.count(t, &models.Enrollment{}, "course_id = ?", course.ID))
	assert.EqualValues(t, 0, env.count(t, &models.UserCourse{}, "user_id = ?", student.ID))
	assert.EqualValues(t, 0, env.count(t, &models.Progress{}, "user_id = ?", student.ID))
	stored := env.reload(t, course.ID)
	assert.Equal(t, uint(1), stored.Revision)
	assert.Zero(t, stored.Analytics.TotalEnrollments)
}

func TestEnrollRetriesAfterConcurrentCourseWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "dave")
	_, sub := env.category(t, "Physics")
	course := env.course(t, sub, 1)

	bumps := 0
	err := env.db.Callback().Update().Before("gorm:update").Register("test:concurrent_writer", func(tx *gorm.DB) {
		if tx.Statement.Table == "courses" && bumps == 0 {
			bumps++
			_ = tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE courses SET revision = revision + 1").Error
		}
	})
	require.NoError(t, err)

	enrolled, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, bumps)
	assert.Equal(t, 1, enrolled.Analytics.TotalEnrollments)
	assert.EqualValues(t, 1, env.count(t, &models.Enrollment{}, "course_id = ?", course.ID))
}

func TestEnrollGivesUpAfterRepeatedConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "erin")
	_, sub := env.category(t, "Chemistry")
	course := env.course(t, sub, 1)

	err := env.db.Callback().Update().Before("gorm:update").Register("test:always_conflict", func(tx *gorm.DB) {
		if tx.Statement.Table == "courses" {
			_ = tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE courses SET revision = revision + 1").Error
		}
	})
	require.NoError(t, err)

	_, err = env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	assert.ErrorIs(t, err, ErrTransactionAborted)
	assert.EqualValues(t, 0, env.count(t, &models.Enrollment{}, "course_id = ?", course.ID))
}

func TestRecordProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "frank")
	_, sub := env.category(t, "History")
	course := env.course(t, sub, 4)
	first, second := course.Chapters[0].ID, course.Chapters[1].ID

	_, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)

	p, err := env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), first)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, p.Progress, 0.001)

	// completing the same chapter twice counts a view but not progress
	p, err = env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), first)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, p.Progress, 0.001)
	assert.Len(t, p.CompletedChapters, 1)

	p, err = env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), second)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, p.Progress, 0.001)
	assert.Equal(t, second, p.LastAccessedChapter)
	assert.ElementsMatch(t, []string{first, second}, p.CompletedChapters)

	stored := env.reload(t, course.ID)
	mirror := stored.Enrollments[0].Progress
	assert.ElementsMatch(t, []string{first, second}, mirror.CompletedChapters)
	require.NotNil(t, mirror.LastAccessedChapter)
	assert.Equal(t, second, *mirror.LastAccessedChapter)
	require.NotNil(t, mirror.LastAccessedAt)

	assert.InDelta(t, 50.0, stored.Analytics.AverageProgress, 0.001)
	assert.Equal(t, 1, stored.Analytics.ActiveStudents)
	views := map[string]int{}
	for _, v := range stored.Analytics.ChapterViews {
		views[v.Chapter] = v.Views
	}
	assert.Equal(t, map[string]int{first: 2, second: 1}, views)
}

func TestRecordProgressErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "grace")
	outsider := env.user(t, "heidi")
	_, sub := env.category(t, "Biology")
	course := env.course(t, sub, 2)
	chapter := course.Chapters[0].ID

	_, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)

	_, err = env.enrollments.RecordProgress(ctx, student.ID, "nope", chapter)
	assert.ErrorIs(t, err, ErrInvalidCourseID)

	_, err = env.enrollments.RecordProgress(ctx, student.ID, "777", chapter)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = env.enrollments.RecordProgress(ctx, outsider.ID, idString(course.ID), chapter)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), "not-a-chapter")
	assert.ErrorIs(t, err, ErrChapterNotFound)

	_, err = env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), " ")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "chapterId", verr.Fields[0].Field)

	require.NoError(t, env.db.Where("user_id = ?", student.ID).Delete(&models.Progress{}).Error)
	_, err = env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), chapter)
	assert.ErrorIs(t, err, ErrProgressRecordMissing)

	stored := env.reload(t, course.ID)
	assert.Empty(t, stored.Enrollments[0].Progress.CompletedChapters)
	assert.Empty(t, stored.Analytics.ChapterViews)
}

func TestRecordProgressCapsAtHundredAfterChaptersShrink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "ivan")
	_, sub := env.category(t, "Art")
	course := env.course(t, sub, 2)
	keep, drop := course.Chapters[0], course.Chapters[1]

	_, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	for _, ch := range []string{keep.ID, drop.ID} {
		_, err = env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), ch)
		require.NoError(t, err)
	}

	_, err = env.catalog.UpdateCourse(ctx, idString(course.ID), CourseUpdate{
		Chapters: []ChapterInput{{ID: keep.ID, Title: keep.Title, VideoURL: keep.VideoURL, Order: 1}},
	})
	require.NoError(t, err)

	p, err := env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), keep.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Progress)

	stored := env.reload(t, course.ID)
	assert.Equal(t, 100.0, stored.Analytics.AverageProgress)
}

func TestGetProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "judy")
	outsider := env.user(t, "mallory")
	_, sub := env.category(t, "Music")
	course := env.course(t, sub, 2)

	_, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)

	p, err := env.enrollments.GetProgress(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	assert.Equal(t, course.ID, p.CourseID)

	_, err = env.enrollments.GetProgress(ctx, outsider.ID, idString(course.ID))
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = env.enrollments.GetProgress(ctx, student.ID, "31337")
	assert.ErrorIs(t, err, ErrCourseNotFound)

	require.NoError(t, env.db.Where("user_id = ?", student.ID).Delete(&models.Progress{}).Error)
	_, err = env.enrollments.GetProgress(ctx, student.ID, idString(course.ID))
	assert.ErrorIs(t, err, ErrProgressRecordMissing)
}

func TestListEnrolledCourses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "niaj")
	_, sub := env.category(t, "Languages")
	first := env.course(t, sub, 2)
	second := env.course(t, sub, 1)
	env.course(t, sub, 1)

	for _, c := range []models.Course{first, second} {
		_, err := env.enrollments.Enroll(ctx, student.ID, idString(c.ID))
		require.NoError(t, err)
	}
	_, err := env.enrollments.RecordProgress(ctx, student.ID, idString(first.ID), first.Chapters[0].ID)
	require.NoError(t, err)

	courses, err := env.enrollments.ListEnrolledCourses(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	byID := map[uint]models.EnrolledCourse{}
	for _, c := range courses {
		byID[c.Course.ID] = c
	}
	require.NotNil(t, byID[first.ID].Progress)
	assert.InDelta(t, 50.0, byID[first.ID].Progress.Progress, 0.001)
	require.NotNil(t, byID[second.ID].Progress)
	assert.Zero(t, byID[second.ID].Progress.Progress)

	empty, err := env.enrollments.ListEnrolledCourses(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAnalyticsReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "olivia")
	_, sub := env.category(t, "Economics")
	course := env.course(t, sub, 2)

	_, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	_, err = env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), course.Chapters[1].ID)
	require.NoError(t, err)

	report, err := env.enrollments.AnalyticsReport(ctx, idString(course.ID))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Chapters)
	assert.Equal(t, 1, report.Analytics.TotalEnrollments)
	require.Len(t, report.Students, 1)
	assert.Equal(t, "olivia", report.Students[0].UserName)
	assert.Equal(t, 1, report.Students[0].ChaptersCompleted)
	assert.InDelta(t, 50.0, report.Students[0].CompletionRate, 0.001)
}

func TestRefreshAnalyticsRollsTimeWindows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "peggy")
	_, sub := env.category(t, "Law")
	course := env.course(t, sub, 1)

	_, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, env.reload(t, course.ID).Analytics.RecentEnrollments)

	env.now = env.now.Add(10 * 24 * time.Hour)
	refreshed, err := env.enrollments.RefreshAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)

	stored := env.reload(t, course.ID)
	assert.Zero(t, stored.Analytics.RecentEnrollments)
	assert.Equal(t, 1, stored.Analytics.TotalEnrollments)
	assert.Len(t, stored.Analytics.EnrollmentHistory, 2)
}
