package services

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidCourseID     = errors.New("invalid course id")
	ErrCourseNotFound      = errors.New("course not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrChapterNotFound     = errors.New("chapter not found in course")

	ErrAlreadyEnrolled       = errors.New("already enrolled in this course")
	ErrNotEnrolled           = errors.New("not enrolled in this course")
	ErrProgressRecordMissing = errors.New("progress record not found")
	ErrTransactionAborted    = errors.New("transaction aborted")
	ErrRevisionConflict      = errors.New("course was modified concurrently")

	ErrInvalidRating        = errors.New("rating must be a whole number between 1 and 5")
	ErrDuplicateReview      = errors.New("you have already reviewed this course")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrInvalidChapterURL    = errors.New("chapter video url must be a YouTube link")
	ErrValidation           = errors.New("validation failed")

	ErrEmailExists                = errors.New("email already registered")
	ErrInvalidCredentials         = errors.New("invalid email or password")
	ErrAdminRegistrationForbidden = errors.New("admin registration is not allowed")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field messages. Err is the sentinel callers match on.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return e.Err.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Err: ErrValidation, Fields: []FieldError{{Field: field, Message: message}}}
}

// domainErrors are returned to callers as-is; anything else out of a
// transaction is treated as an infrastructure failure.
var domainErrors = []error{
	ErrInvalidID,
	ErrInvalidCourseID,
	ErrCourseNotFound,
	ErrUserNotFound,
	ErrCategoryNotFound,
	ErrSubcategoryNotFound,
	ErrChapterNotFound,
	ErrAlreadyEnrolled,
	ErrNotEnrolled,
	ErrProgressRecordMissing,
	ErrInvalidRating,
	ErrDuplicateReview,
	ErrReferentialIntegrity,
	ErrValidation,
	ErrInvalidChapterURL,
	ErrEmailExists,
	ErrInvalidCredentials,
	ErrAdminRegistrationForbidden,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
