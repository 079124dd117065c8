package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"lms/backend/models"
	"lms/backend/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	catalog     *CatalogService
	enrollments *EnrollmentService
	reviews     *ReviewService
	now         time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testutil.Config(t)
	db := testutil.DB(t, cfg)
	log := testutil.Logger()

	env := &testEnv{
		db:          db,
		catalog:     NewCatalogService(db, log, cfg.CourseUpdateRetries),
		enrollments: NewEnrollmentService(db, log, cfg.CourseUpdateRetries),
		reviews:     NewReviewService(db, log),
		now:         time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	env.catalog.Now = clock
	env.enrollments.Now = clock
	return env
}

func (e *testEnv) user(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: models.RoleStudent}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) category(t *testing.T, name string) (models.Category, models.Subcategory) {
	t.Helper()
	ctx := context.Background()
	cat, err := e.catalog.CreateCategory(ctx, CategoryInput{Name: name})
	require.NoError(t, err)
	sub, err := e.catalog.CreateSubcategory(ctx, SubcategoryInput{Name: name + " basics", CategoryID: cat.ID})
	require.NoError(t, err)
	return *cat, *sub
}

func chapterInputs(n int) []ChapterInput {
	out := make([]ChapterInput, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, ChapterInput{
			Title:    fmt.Sprintf("Chapter %d", i),
			VideoURL: fmt.Sprintf("https://www.youtube.com/watch?v=vid%d", i),
			Order:    i,
		})
	}
	return out
}

func (e *testEnv) course(t *testing.T, sub models.Subcategory, chapters int) models.Course {
	t.Helper()
	c, err := e.catalog.CreateCourse(context.Background(), 1, CourseInput{
		Name:          "Go in Practice",
		Description:   "Write real services",
		CategoryID:    sub.CategoryID,
		SubcategoryID: sub.ID,
		Chapters:      chapterInputs(chapters),
	})
	require.NoError(t, err)
	return *c
}

func (e *testEnv) reload(t *testing.T, id uint) *models.Course {
	t.Helper()
	c, err := loadCourse(e.db, id)
	require.NoError(t, err)
	return c
}

func (e *testEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func idString(id uint) string {
	return fmt.Sprint(id)
}
