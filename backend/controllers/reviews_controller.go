package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ReviewsController struct {
	Reviews *services.ReviewService
	Log     *utils.Logger
}

func NewReviewsController(reviews *services.ReviewService, log *utils.Logger) *ReviewsController {
	return &ReviewsController{Reviews: reviews, Log: log}
}

// AddReviewRequest defines the request body for reviewing a course
type AddReviewRequest struct {
	Rating float64 `json:"rating" example:"5" minimum:"1" maximum:"5"`
	Text   string  `json:"text" example:"This course was amazing!"`
}

// students must be enrolled to review, so not-enrolled is a 403 here
var reviewErrorStatuses = []errorStatus{
	{err: services.ErrNotEnrolled, status: fiber.StatusForbidden, code: "not_enrolled"},
}

// AddReview godoc
// @Summary Review a course
// @Description Adds a rating with optional text. One review per student and course.
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body AddReviewRequest true "Review"
// @Success 201 {array} models.Review
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/reviews [post]
func (rc *ReviewsController) AddReview(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input AddReviewRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	reviews, err := rc.Reviews.SubmitReview(c.UserContext(), userID, c.Params("id"), input.Rating, input.Text)
	if err != nil {
		return respondError(c, rc.Log, err, reviewErrorStatuses...)
	}
	return c.Status(fiber.StatusCreated).JSON(reviews)
}

// GetReviews godoc
// @Summary Course reviews
// @Tags reviews
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {array} models.Review
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{id}/reviews [get]
func (rc *ReviewsController) GetReviews(c *fiber.Ctx) error {
	reviews, _, err := rc.Reviews.ListReviews(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, rc.Log, err)
	}
	return c.JSON(reviews)
}

// GetSummary godoc
// @Summary Average rating
// @Tags reviews
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Router /courses/{id}/reviews/summary [get]
func (rc *ReviewsController) GetSummary(c *fiber.Ctx) error {
	reviews, average, err := rc.Reviews.ListReviews(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, rc.Log, err)
	}
	return c.JSON(fiber.Map{"average": average, "count": len(reviews)})
}
