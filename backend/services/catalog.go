package services

import (
	"context"
	"strings"
	"time"

	"lms/backend/models"
	"lms/backend/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
}

type SubcategoryInput struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
	CategoryID  uint   `json:"categoryId" validate:"required"`
}

type ChapterInput struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl" validate:"required,videourl"`
	Order       int    `json:"order" validate:"required,gt=0"`
	Duration    string `json:"duration"`
}

type CourseInput struct {
	Name          string         `json:"name" validate:"required,notblank"`
	Description   string         `json:"description" validate:"required,notblank"`
	CategoryID    uint           `json:"categoryId" validate:"required"`
	SubcategoryID uint           `json:"subcategoryId" validate:"required"`
	Thumbnail     string         `json:"thumbnail"`
	Chapters      []ChapterInput `json:"chapters" validate:"omitempty,dive"`
}

// CourseUpdate is a partial update. Zero values leave the field unchanged; a
// non-nil Chapters replaces the whole chapter list.
type CourseUpdate struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	CategoryID    uint           `json:"categoryId"`
	SubcategoryID uint           `json:"subcategoryId"`
	Thumbnail     string         `json:"thumbnail"`
	Chapters      []ChapterInput `json:"chapters" validate:"omitempty,dive"`
}

type CourseFilter struct {
	CategoryID    uint
	SubcategoryID uint
	Search        string
}

// CatalogService manages categories, subcategories, courses and chapters.
type CatalogService struct {
	db      *gorm.DB
	log     *utils.Logger
	retries int

	Now func() time.Time
}

func NewCatalogService(db *gorm.DB, log *utils.Logger, retries int) *CatalogService {
	return &CatalogService{db: db, log: log, retries: retries, Now: time.Now}
}

// Categories

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Preload("Subcategories").Order("name ASC").Find(&categories).Error
	return categories, errors.Wrap(err, "list categories")
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	category := models.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return &category, nil
}

// DeleteCategory removes the category, its subcategories, their courses and
// everything attached to those courses in one transaction.
func (s *CatalogService) DeleteCategory(ctx context.Context, rawID string) error {
	id, ok := ParseID(rawID)
	if !ok {
		return ErrInvalidID
	}
	var removed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return errors.Wrap(err, "load category")
		}
		var courseIDs []uint
		if err := tx.Model(&models.Course{}).Where("category_id = ?", id).Pluck("id", &courseIDs).Error; err != nil {
			return errors.Wrap(err, "list category courses")
		}
		if err := deleteCourses(tx, courseIDs); err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Subcategory{}).Error; err != nil {
			return errors.Wrap(err, "delete subcategories")
		}
		removed = len(courseIDs)
		return errors.Wrap(tx.Delete(&category).Error, "delete category")
	})
	if err != nil {
		return err
	}
	s.log.Info("category deleted", "categoryID", id, "coursesRemoved", removed)
	return nil
}

// Subcategories

// ListSubcategories lists all subcategories, or those of one category when categoryID > 0.
func (s *CatalogService) ListSubcategories(ctx context.Context, categoryID uint) ([]models.Subcategory, error) {
	q := s.db.WithContext(ctx).Preload("Category").Order("name ASC")
	if categoryID > 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var subcategories []models.Subcategory
	err := q.Find(&subcategories).Error
	return subcategories, errors.Wrap(err, "list subcategories")
}

func (s *CatalogService) CreateSubcategory(ctx context.Context, in SubcategoryInput) (*models.Subcategory, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	var subcategory models.Subcategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, in.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(ErrReferentialIntegrity, "category %d not found", in.CategoryID)
			}
			return errors.Wrap(err, "load category")
		}
		subcategory = models.Subcategory{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			CategoryID:  category.ID,
		}
		if err := tx.Create(&subcategory).Error; err != nil {
			return errors.Wrap(err, "create subcategory")
		}
		subcategory.Category = &category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &subcategory, nil
}

func (s *CatalogService) DeleteSubcategory(ctx context.Context, rawID string) error {
	id, ok := ParseID(rawID)
	if !ok {
		return ErrInvalidID
	}
	var removed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subcategory models.Subcategory
		if err := tx.First(&subcategory, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubcategoryNotFound
			}
			return errors.Wrap(err, "load subcategory")
		}
		var courseIDs []uint
		if err := tx.Model(&models.Course{}).Where("subcategory_id = ?", id).Pluck("id", &courseIDs).Error; err != nil {
			return errors.Wrap(err, "list subcategory courses")
		}
		if err := deleteCourses(tx, courseIDs); err != nil {
			return err
		}
		removed = len(courseIDs)
		return errors.Wrap(tx.Delete(&subcategory).Error, "delete subcategory")
	})
	if err != nil {
		return err
	}
	s.log.Info("subcategory deleted", "subcategoryID", id, "coursesRemoved", removed)
	return nil
}

// Courses

func (s *CatalogService) ListCourses(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	q := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Subcategory").
		Preload("Chapters", orderedChapters).
		Preload("Enrollments", orderedEnrollments).
		Order("created_at DESC, id DESC")
	if filter.CategoryID > 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.SubcategoryID > 0 {
		q = q.Where("subcategory_id = ?", filter.SubcategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	var courses []models.Course
	err := q.Find(&courses).Error
	return courses, errors.Wrap(err, "list courses")
}

func (s *CatalogService) GetCourse(ctx context.Context, rawID string) (*models.Course, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return nil, ErrInvalidCourseID
	}
	return s.getCourse(ctx, id)
}

func (s *CatalogService) getCourse(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Subcategory").
		Preload("Chapters", orderedChapters).
		Preload("Enrollments", orderedEnrollments).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load course")
	}
	return &course, nil
}

// SearchCourses backs the catalog overview. sortBy is "newest", "rating" or
// anything else for popularity.
func (s *CatalogService) SearchCourses(ctx context.Context, search, sortBy string) ([]models.CourseSummary, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Course{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	switch sortBy {
	case "newest":
		q = q.Order("created_at DESC, id DESC")
	case "rating":
		q = q.Order("(SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE reviews.course_id = courses.id) DESC, id DESC")
	default:
		q = q.Order("analytics_total_enrollments DESC, id DESC")
	}

	var courses []models.Course
	if err := q.Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "search courses")
	}
	if len(courses) == 0 {
		return []models.CourseSummary{}, nil
	}

	ids := make([]uint, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	var stats []struct {
		CourseID uint
		Average  float64
		Total    int
	}
	if err := db.Model(&models.Review{}).
		Select("course_id, AVG(rating) AS average, COUNT(*) AS total").
		Where("course_id IN ?", ids).
		Group("course_id").
		Scan(&stats).Error; err != nil {
		return nil, errors.Wrap(err, "aggregate ratings")
	}
	type ratingStat struct {
		average float64
		total   int
	}
	ratings := make(map[uint]ratingStat, len(stats))
	for _, st := range stats {
		ratings[st.CourseID] = ratingStat{average: st.Average, total: st.Total}
	}

	out := make([]models.CourseSummary, 0, len(courses))
	for _, c := range courses {
		r := ratings[c.ID]
		out = append(out, models.CourseSummary{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Thumbnail:   c.Thumbnail,
			CategoryID:  c.CategoryID,
			Enrollments: c.Analytics.TotalEnrollments,
			Rating:      r.average,
			Reviews:     r.total,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out, nil
}

func (s *CatalogService) CreateCourse(ctx context.Context, adminID uint, in CourseInput) (*models.Course, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	var courseID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCourseRefs(tx, in.CategoryID, in.SubcategoryID); err != nil {
			return err
		}
		course := models.Course{
			Name:          strings.TrimSpace(in.Name),
			Description:   in.Description,
			CategoryID:    in.CategoryID,
			SubcategoryID: in.SubcategoryID,
			Thumbnail:     in.Thumbnail,
			AdminID:       adminID,
			Revision:      1,
			Analytics: models.Analytics{
				EnrollmentHistory: datatypes.JSONSlice[models.HistoryBucket]{},
				ChapterViews:      datatypes.JSONSlice[models.ChapterView]{},
			},
		}
		if err := tx.Omit("Chapters", "Enrollments", "Reviews", "Category", "Subcategory").Create(&course).Error; err != nil {
			return errors.Wrap(err, "create course")
		}
		chapters := buildChapters(course.ID, in.Chapters, nil)
		if len(chapters) > 0 {
			if err := tx.Create(&chapters).Error; err != nil {
				return errors.Wrap(err, "create chapters")
			}
		}
		courseID = course.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("course created", "courseID", courseID, "adminID", adminID)
	return s.getCourse(ctx, courseID)
}

// UpdateCourse applies a partial update. Replacing chapters drops the view
// counters of removed chapters and recomputes the analytics and every
// student's progress percentage against the new list. Completed ids of removed
// chapters stay in the records but no longer count.
func (s *CatalogService) UpdateCourse(ctx context.Context, rawID string, in CourseUpdate) (*models.Course, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return nil, ErrInvalidCourseID
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	err := runInTx(ctx, s.db, s.retries, func(tx *gorm.DB) error {
		course, err := loadCourse(tx, id)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if name := strings.TrimSpace(in.Name); name != "" {
			fields["name"] = name
		}
		if in.Description != "" {
			fields["description"] = in.Description
		}
		if in.Thumbnail != "" {
			fields["thumbnail"] = in.Thumbnail
		}
		categoryID, subcategoryID := course.CategoryID, course.SubcategoryID
		if in.CategoryID > 0 {
			categoryID = in.CategoryID
		}
		if in.SubcategoryID > 0 {
			subcategoryID = in.SubcategoryID
		}
		if categoryID != course.CategoryID || subcategoryID != course.SubcategoryID {
			if err := checkCourseRefs(tx, categoryID, subcategoryID); err != nil {
				return err
			}
			fields["category_id"] = categoryID
			fields["subcategory_id"] = subcategoryID
		}

		if in.Chapters != nil {
			chapters := buildChapters(course.ID, in.Chapters, course.Chapters)
			if err := tx.Where("course_id = ?", course.ID).Delete(&models.Chapter{}).Error; err != nil {
				return errors.Wrap(err, "clear chapters")
			}
			if len(chapters) > 0 {
				if err := tx.Create(&chapters).Error; err != nil {
					return errors.Wrap(err, "create chapters")
				}
			}
			course.Chapters = chapters
			if err := recomputeProgressRows(tx, course); err != nil {
				return err
			}
			course.Analytics = RecomputeAnalytics(course, s.Now())
			for k, v := range analyticsColumns(course.Analytics) {
				fields[k] = v
			}
		}

		return updateCourseCAS(tx, course, fields)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "update course %d", id)
	}
	s.log.Info("course updated", "courseID", id, "chaptersReplaced", in.Chapters != nil)
	return s.getCourse(ctx, id)
}

func (s *CatalogService) DeleteCourse(ctx context.Context, rawID string) error {
	id, ok := ParseID(rawID)
	if !ok {
		return ErrInvalidCourseID
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Select("id").First(&course, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return errors.Wrap(err, "load course")
		}
		return deleteCourses(tx, []uint{id})
	})
	if err != nil {
		return err
	}
	s.log.Info("course deleted", "courseID", id)
	return nil
}

// checkCourseRefs requires both to exist and the subcategory to belong to the category.
func checkCourseRefs(tx *gorm.DB, categoryID, subcategoryID uint) error {
	var category models.Category
	if err := tx.Select("id").First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(ErrReferentialIntegrity, "category %d not found", categoryID)
		}
		return errors.Wrap(err, "load category")
	}
	var subcategory models.Subcategory
	if err := tx.First(&subcategory, subcategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(ErrReferentialIntegrity, "subcategory %d not found", subcategoryID)
		}
		return errors.Wrap(err, "load subcategory")
	}
	if subcategory.CategoryID != categoryID {
		return errors.Wrapf(ErrReferentialIntegrity, "subcategory %d does not belong to category %d", subcategoryID, categoryID)
	}
	return nil
}

// buildChapters keeps client ids that already belong to the course and mints
// new ones for everything else.
func buildChapters(courseID uint, in []ChapterInput, existing []models.Chapter) []models.Chapter {
	known := make(map[string]struct{}, len(existing))
	for _, ch := range existing {
		known[ch.ID] = struct{}{}
	}
	used := make(map[string]struct{}, len(in))
	out := make([]models.Chapter, 0, len(in))
	for _, c := range in {
		id := strings.TrimSpace(c.ID)
		_, isKnown := known[id]
		_, isUsed := used[id]
		if id == "" || !isKnown || isUsed {
			id = uuid.NewString()
		}
		used[id] = struct{}{}
		out = append(out, models.Chapter{
			ID:          id,
			CourseID:    courseID,
			Title:       strings.TrimSpace(c.Title),
			Description: c.Description,
			VideoURL:    strings.TrimSpace(c.VideoURL),
			Order:       c.Order,
			Duration:    c.Duration,
		})
	}
	return out
}
