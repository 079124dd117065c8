package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type errorStatus struct {
	err     error
	status  int
	code    string
	message string // overrides err.Error() when set
}

var errorStatuses = []errorStatus{
	{err: services.ErrInvalidID, status: fiber.StatusBadRequest, code: "invalid_id"},
	{err: services.ErrInvalidCourseID, status: fiber.StatusBadRequest, code: "invalid_course_id"},
	{err: services.ErrAlreadyEnrolled, status: fiber.StatusBadRequest, code: "already_enrolled"},
	{err: services.ErrNotEnrolled, status: fiber.StatusBadRequest, code: "not_enrolled"},
	{err: services.ErrInvalidRating, status: fiber.StatusBadRequest, code: "invalid_rating"},
	{err: services.ErrDuplicateReview, status: fiber.StatusBadRequest, code: "duplicate_review"},
	{err: services.ErrReferentialIntegrity, status: fiber.StatusBadRequest, code: "referential_integrity"},
	{err: services.ErrEmailExists, status: fiber.StatusBadRequest, code: "email_exists"},
	{err: services.ErrInvalidCredentials, status: fiber.StatusUnauthorized, code: "invalid_credentials"},
	{err: services.ErrAdminRegistrationForbidden, status: fiber.StatusForbidden, code: "admin_registration_forbidden"},
	{err: services.ErrCourseNotFound, status: fiber.StatusNotFound, code: "course_not_found"},
	{err: services.ErrUserNotFound, status: fiber.StatusNotFound, code: "user_not_found"},
	{err: services.ErrCategoryNotFound, status: fiber.StatusNotFound, code: "category_not_found"},
	{err: services.ErrSubcategoryNotFound, status: fiber.StatusNotFound, code: "subcategory_not_found"},
	{err: services.ErrChapterNotFound, status: fiber.StatusNotFound, code: "chapter_not_found"},
	{err: services.ErrProgressRecordMissing, status: fiber.StatusNotFound, code: "progress_not_found"},
	{err: services.ErrTransactionAborted, status: fiber.StatusInternalServerError, code: "transaction_aborted",
		message: "The operation could not be completed, please try again"},
}

// respondError writes the JSON error envelope for err. overrides are checked
// before the default table.
func respondError(c *fiber.Ctx, log *utils.Logger, err error, overrides ...errorStatus) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		status := fiber.StatusUnprocessableEntity
		if errors.Is(verr.Err, services.ErrInvalidChapterURL) {
			status = fiber.StatusBadRequest
		}
		return utils.ValidationError(c, status, verr.Err.Error(), verr.Fields)
	}

	for _, table := range [][]errorStatus{overrides, errorStatuses} {
		for _, m := range table {
			if !errors.Is(err, m.err) {
				continue
			}
			if m.status >= fiber.StatusInternalServerError {
				log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
			}
			message := m.message
			if message == "" {
				message = err.Error()
			}
			return utils.ErrorWithCode(c, m.status, m.code, message)
		}
	}

	log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return utils.InternalServerError(c, "Internal server error")
}
