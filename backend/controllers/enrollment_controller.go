package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type EnrollmentController struct {
	Enrollments *services.EnrollmentService
	Log         *utils.Logger
}

func NewEnrollmentController(enrollments *services.EnrollmentService, log *utils.Logger) *EnrollmentController {
	return &EnrollmentController{Enrollments: enrollments, Log: log}
}

type ProgressRequest struct {
	ChapterID string `json:"chapterId" example:"3f1c2b8e-9d7a-4c55-8f0e-1a2b3c4d5e6f"`
}

// Enroll godoc
// @Summary Enroll in course
// @Tags enrollment
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (ec *EnrollmentController) Enroll(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	if _, err := ec.Enrollments.Enroll(c.UserContext(), userID, c.Params("id")); err != nil {
		return respondError(c, ec.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Successfully enrolled in course"})
}

// RecordProgress godoc
// @Summary Complete a chapter
// @Tags enrollment
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body ProgressRequest true "Chapter"
// @Success 200 {object} models.Progress
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/progress [post]
func (ec *EnrollmentController) RecordProgress(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input ProgressRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	progress, err := ec.Enrollments.RecordProgress(c.UserContext(), userID, c.Params("id"), input.ChapterID)
	if err != nil {
		return respondError(c, ec.Log, err)
	}
	return c.JSON(progress)
}

// GetProgress godoc
// @Summary Progress in course
// @Tags enrollment
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.Progress
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/progress [get]
func (ec *EnrollmentController) GetProgress(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	progress, err := ec.Enrollments.GetProgress(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, ec.Log, err)
	}
	return c.JSON(progress)
}

// GetCourseAnalytics godoc
// @Summary Course analytics
// @Description Stored analytics of the course and a per-student breakdown
// @Tags analytics
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseAnalyticsReport
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/analytics [get]
func (ec *EnrollmentController) GetCourseAnalytics(c *fiber.Ctx) error {
	report, err := ec.Enrollments.AnalyticsReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, ec.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, report)
}
