package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	Catalog *services.CatalogService
	Log     *utils.Logger
}

func NewCoursesController(catalog *services.CatalogService, log *utils.Logger) *CoursesController {
	return &CoursesController{Catalog: catalog, Log: log}
}

// GetCourses godoc
// @Summary List courses
// @Description Courses with category, subcategory, chapters and enrolled students
// @Tags courses
// @Produce json
// @Param categoryId query int false "Category filter"
// @Param subcategoryId query int false "Subcategory filter"
// @Param search query string false "Name or description contains"
// @Success 200 {array} models.Course
// @Router /courses [get]
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	filter := services.CourseFilter{Search: c.Query("search")}
	if raw := c.Query("categoryId"); raw != "" {
		id, ok := services.ParseID(raw)
		if !ok {
			return utils.BadRequest(c, "Invalid category ID")
		}
		filter.CategoryID = id
	}
	if raw := c.Query("subcategoryId"); raw != "" {
		id, ok := services.ParseID(raw)
		if !ok {
			return utils.BadRequest(c, "Invalid subcategory ID")
		}
		filter.SubcategoryID = id
	}

	courses, err := cc.Catalog.ListCourses(c.UserContext(), filter)
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.JSON(courses)
}

// GetCourse godoc
// @Summary Course details
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	course, err := cc.Catalog.GetCourse(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.JSON(course)
}

// CreateCourse godoc
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param input body services.CourseInput true "Course"
// @Success 201 {object} models.Course
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	adminID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input services.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	course, err := cc.Catalog.CreateCourse(c.UserContext(), adminID, input)
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// UpdateCourse godoc
// @Summary Update course
// @Description Partial update. Sending chapters replaces the whole chapter list.
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body services.CourseUpdate true "Changes"
// @Success 200 {object} models.Course
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	var input services.CourseUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	course, err := cc.Catalog.UpdateCourse(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.JSON(course)
}

// DeleteCourse godoc
// @Summary Delete course
// @Description Removes the course with its chapters, enrollments, progress and reviews
// @Tags courses
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [delete]
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	if err := cc.Catalog.DeleteCourse(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, cc.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Course deleted successfully"})
}
