package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the envelope of successful responses.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of every error response.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Success writes data with an optional meta object.
func Success(c *fiber.Ctx, status int, data interface{}, meta ...interface{}) error {
	response := SuccessResponse{
		Success: true,
		Data:    data,
	}

	if len(meta) > 0 {
		response.Meta = meta[0]
	}

	return c.Status(status).JSON(response)
}

// ErrorWithCode writes an error envelope. code is machine readable and may be empty.
func ErrorWithCode(c *fiber.Ctx, status int, code, message string, details ...interface{}) error {
	response := ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	}

	if len(details) > 0 {
		response.Details = details[0]
	}

	return c.Status(status).JSON(response)
}

// PaginatedResponse wraps one page of a list.
type PaginatedResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// Paginate writes a page with its total count.
func Paginate(c *fiber.Ctx, data interface{}, total int64, page int, pageSize int) error {
	return c.JSON(PaginatedResponse{
		Success:  true,
		Data:     data,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// ValidationError writes per-field validation failures under details.
func ValidationError(c *fiber.Ctx, status int, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   "Validation Error",
		Message: message,
		Code:    "validation_failed",
		Details: details,
	})
}

// BadRequest writes a 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusBadRequest, "", message)
}

// Unauthorized writes a 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusUnauthorized, "", message)
}

// Forbidden writes a 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusForbidden, "", message)
}

// InternalServerError writes a 500.
func InternalServerError(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusInternalServerError, "", message)
}

// ErrorHandler renders errors raised by fiber itself, such as unknown routes
// and recovered panics, in the same envelope.
func ErrorHandler(logger *Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
			message = fe.Message
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("unhandled request error", "path", c.Path(), "error", err)
		}
		return ErrorWithCode(c, status, "", message)
	}
}
