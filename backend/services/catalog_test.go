package services

import (
	"context"
	"testing"

	"lms/backend/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVideoURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=abc",
		"http://youtube.com/embed/abc",
		"youtube.com/watch?v=abc",
		"https://youtu.be/abc",
		"youtube/abc",
	}
	for _, u := range valid {
		assert.True(t, IsVideoURL(u), u)
	}
	invalid := []string{
		"",
		"https://vimeo.com/123",
		"https://www.youtube.com/",
		"ftp://youtube.com/watch?v=abc",
		"https://notyoutube.com/watch",
		"youtube.be/abc",
	}
	for _, u := range invalid {
		assert.False(t, IsVideoURL(u), u)
	}
}

func TestCreateCourseChecksCategoryPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, sub := env.category(t, "Programming")
	other, _ := env.category(t, "Cooking")

	_, err := env.catalog.CreateCourse(ctx, 1, CourseInput{
		Name: "Go", Description: "d", CategoryID: other.ID, SubcategoryID: sub.ID,
	})
	assert.ErrorIs(t, err, ErrReferentialIntegrity)

	_, err = env.catalog.CreateCourse(ctx, 1, CourseInput{
		Name: "Go", Description: "d", CategoryID: 999, SubcategoryID: sub.ID,
	})
	assert.ErrorIs(t, err, ErrReferentialIntegrity)

	_, err = env.catalog.CreateCourse(ctx, 1, CourseInput{
		Name: "Go", Description: "d", CategoryID: sub.CategoryID, SubcategoryID: 999,
	})
	assert.ErrorIs(t, err, ErrReferentialIntegrity)

	assert.EqualValues(t, 0, env.count(t, &models.Course{}, "1 = 1"))
}

func TestCreateCourseValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, sub := env.category(t, "Programming")

	_, err := env.catalog.CreateCourse(ctx, 1, CourseInput{
		Name: "Go", Description: "d", CategoryID: sub.CategoryID, SubcategoryID: sub.ID,
		Chapters: []ChapterInput{{Title: "Intro", VideoURL: "https://vimeo.com/1", Order: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidChapterURL)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "chapters[0].videoUrl", verr.Fields[0].Field)

	_, err = env.catalog.CreateCourse(ctx, 1, CourseInput{
		Description: "d", CategoryID: sub.CategoryID, SubcategoryID: sub.ID,
		Chapters: []ChapterInput{{Title: "Intro", VideoURL: "https://youtu.be/x", Order: 0}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrInvalidChapterURL)
	require.True(t, errors.As(err, &verr))
	fields := []string{}
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "chapters[0].order"}, fields)
}

func TestCreateCourseStartsEmpty(t *testing.T) {
	env := newTestEnv(t)
	_, sub := env.category(t, "Programming")
	course := env.course(t, sub, 3)

	assert.Equal(t, uint(1), course.Revision)
	assert.Equal(t, uint(1), course.AdminID)
	assert.Empty(t, course.Enrollments)
	assert.Zero(t, course.Analytics.TotalEnrollments)
	require.Len(t, course.Chapters, 3)
	for i, ch := range course.Chapters {
		assert.NotEmpty(t, ch.ID)
		assert.Equal(t, i+1, ch.Order)
	}
	require.NotNil(t, course.Category)
	require.NotNil(t, course.Subcategory)
}

func TestUpdateCourseReplacesChapters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "alice")
	_, sub := env.category(t, "Programming")
	course := env.course(t, sub, 3)
	keep, drop := course.Chapters[0], course.Chapters[2]

	_, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	for _, ch := range []string{keep.ID, drop.ID} {
		_, err = env.enrollments.RecordProgress(ctx, student.ID, idString(course.ID), ch)
		require.NoError(t, err)
	}
	before := env.reload(t, course.ID)

	updated, err := env.catalog.UpdateCourse(ctx, idString(course.ID), CourseUpdate{
		Name: "Go in Production",
		Chapters: []ChapterInput{
			{ID: keep.ID, Title: "Intro again", VideoURL: keep.VideoURL, Order: 2},
			{ID: "forged-id", Title: "New", VideoURL: "https://youtu.be/new", Order: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Go in Production", updated.Name)
	assert.Equal(t, course.Description, updated.Description)
	assert.Equal(t, before.Revision+1, updated.Revision)
	require.Len(t, updated.Chapters, 2)
	assert.Equal(t, "New", updated.Chapters[0].Title)
	assert.NotEqual(t, "forged-id", updated.Chapters[0].ID)
	assert.Equal(t, keep.ID, updated.Chapters[1].ID)
	assert.Equal(t, "Intro again", updated.Chapters[1].Title)

	require.Len(t, updated.Analytics.ChapterViews, 1)
	assert.Equal(t, keep.ID, updated.Analytics.ChapterViews[0].Chapter)
	assert.EqualValues(t, 0, env.count(t, &models.Chapter{}, "id = ?", drop.ID))

	// one of the two completed chapters is left, out of two chapters
	assert.InDelta(t, 50.0, updated.Analytics.AverageProgress, 0.001)
	progress, err := env.enrollments.GetProgress(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, progress.Progress, 0.001)
	assert.ElementsMatch(t, []string{keep.ID, drop.ID}, progress.CompletedChapters)
}

func TestUpdateCourseLeavesChaptersWhenOmitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, sub := env.category(t, "Programming")
	other, otherSub := env.category(t, "Cooking")
	course := env.course(t, sub, 2)

	updated, err := env.catalog.UpdateCourse(ctx, idString(course.ID), CourseUpdate{
		CategoryID: other.ID, SubcategoryID: otherSub.ID, Thumbnail: "thumb.png",
	})
	require.NoError(t, err)
	assert.Len(t, updated.Chapters, 2)
	assert.Equal(t, other.ID, updated.CategoryID)
	assert.Equal(t, "thumb.png", updated.Thumbnail)

	// moving only the category leaves the subcategory in the old one
	_, err = env.catalog.UpdateCourse(ctx, idString(course.ID), CourseUpdate{CategoryID: sub.CategoryID})
	assert.ErrorIs(t, err, ErrReferentialIntegrity)

	_, err = env.catalog.UpdateCourse(ctx, "404", CourseUpdate{Name: "x"})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = env.catalog.UpdateCourse(ctx, idString(course.ID), CourseUpdate{
		Chapters: []ChapterInput{{Title: "Bad", VideoURL: "https://example.com/v", Order: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidChapterURL)
	assert.Len(t, env.reload(t, course.ID).Chapters, 2)
}

func seedCourseActivity(t *testing.T, env *testEnv, course models.Course, name string) {
	t.Helper()
	ctx := context.Background()
	student := env.user(t, name)
	_, err := env.enrollments.Enroll(ctx, student.ID, idString(course.ID))
	require.NoError(t, err)
	_, err = env.reviews.SubmitReview(ctx, student.ID, idString(course.ID), 4, "good")
	require.NoError(t, err)
}

func TestDeleteCategoryCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat, sub := env.category(t, "Programming")
	_, keepSub := env.category(t, "Cooking")
	doomed := env.course(t, sub, 2)
	survivor := env.course(t, keepSub, 1)
	seedCourseActivity(t, env, doomed, "alice")
	seedCourseActivity(t, env, survivor, "bob")

	require.NoError(t, env.catalog.DeleteCategory(ctx, idString(cat.ID)))

	assert.EqualValues(t, 0, env.count(t, &models.Category{}, "id = ?", cat.ID))
	assert.EqualValues(t, 0, env.count(t, &models.Subcategory{}, "category_id = ?", cat.ID))
	assert.EqualValues(t, 0, env.count(t, &models.Course{}, "id = ?", doomed.ID))
	for _, model := range []interface{}{&models.Chapter{}, &models.Enrollment{}, &models.Progress{}, &models.Review{}, &models.UserCourse{}} {
		assert.EqualValues(t, 0, env.count(t, model, "course_id = ?", doomed.ID))
		assert.NotZero(t, env.count(t, model, "course_id = ?", survivor.ID))
	}

	assert.ErrorIs(t, env.catalog.DeleteCategory(ctx, idString(cat.ID)), ErrCategoryNotFound)
	assert.ErrorIs(t, env.catalog.DeleteCategory(ctx, "x"), ErrInvalidID)
}

func TestDeleteSubcategoryCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat, sub := env.category(t, "Programming")
	sibling, err := env.catalog.CreateSubcategory(ctx, SubcategoryInput{Name: "Advanced", CategoryID: cat.ID})
	require.NoError(t, err)
	doomed := env.course(t, sub, 1)
	survivor := env.course(t, *sibling, 1)
	seedCourseActivity(t, env, doomed, "carol")

	require.NoError(t, env.catalog.DeleteSubcategory(ctx, idString(sub.ID)))

	assert.EqualValues(t, 0, env.count(t, &models.Course{}, "id = ?", doomed.ID))
	assert.EqualValues(t, 0, env.count(t, &models.Review{}, "course_id = ?", doomed.ID))
	assert.EqualValues(t, 1, env.count(t, &models.Course{}, "id = ?", survivor.ID))
	assert.EqualValues(t, 1, env.count(t, &models.Category{}, "id = ?", cat.ID))
	assert.ErrorIs(t, env.catalog.DeleteSubcategory(ctx, idString(sub.ID)), ErrSubcategoryNotFound)
}

func TestDeleteCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, sub := env.category(t, "Programming")
	course := env.course(t, sub, 2)
	seedCourseActivity(t, env, course, "dave")

	require.NoError(t, env.catalog.DeleteCourse(ctx, idString(course.ID)))
	assert.EqualValues(t, 0, env.count(t, &models.Enrollment{}, "course_id = ?", course.ID))
	assert.ErrorIs(t, env.catalog.DeleteCourse(ctx, idString(course.ID)), ErrCourseNotFound)
	assert.ErrorIs(t, env.catalog.DeleteCourse(ctx, "0"), ErrInvalidCourseID)
}

func TestSubcategoryRequiresCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat, _ := env.category(t, "Programming")

	_, err := env.catalog.CreateSubcategory(ctx, SubcategoryInput{Name: "Orphan", CategoryID: 12345})
	assert.ErrorIs(t, err, ErrReferentialIntegrity)

	_, err = env.catalog.CreateSubcategory(ctx, SubcategoryInput{Name: "  ", CategoryID: cat.ID})
	assert.ErrorIs(t, err, ErrValidation)

	subs, err := env.catalog.ListSubcategories(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].Category)
	assert.Equal(t, "Programming", subs[0].Category.Name)
}

func TestListAndSearchCourses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, sub := env.category(t, "Programming")
	_, otherSub := env.category(t, "Cooking")
	quiet := env.course(t, sub, 1)
	popular := env.course(t, otherSub, 1)
	seedCourseActivity(t, env, popular, "erin")

	all, err := env.catalog.ListCourses(ctx, CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := env.catalog.ListCourses(ctx, CourseFilter{CategoryID: otherSub.CategoryID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, popular.ID, filtered[0].ID)

	none, err := env.catalog.ListCourses(ctx, CourseFilter{Search: "kubernetes"})
	require.NoError(t, err)
	assert.Empty(t, none)

	ranked, err := env.catalog.SearchCourses(ctx, "go", "popularity")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, popular.ID, ranked[0].ID)
	assert.Equal(t, 1, ranked[0].Enrollments)
	assert.Equal(t, 4.0, ranked[0].Rating)
	assert.Equal(t, quiet.ID, ranked[1].ID)

	byRating, err := env.catalog.SearchCourses(ctx, "", "rating")
	require.NoError(t, err)
	assert.Equal(t, popular.ID, byRating[0].ID)
}
