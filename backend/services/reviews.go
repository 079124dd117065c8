package services

import (
	"context"
	"math"
	"strings"

	"lms/backend/models"
	"lms/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ReviewService lets enrolled students rate a course once.
type ReviewService struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewReviewService(db *gorm.DB, log *utils.Logger) *ReviewService {
	return &ReviewService{db: db, log: log}
}

// SubmitReview stores the review and returns the course's full review list.
func (s *ReviewService) SubmitReview(ctx context.Context, userID uint, rawCourseID string, rating float64, text string) ([]models.Review, error) {
	courseID, ok := ParseID(rawCourseID)
	if !ok {
		return nil, ErrInvalidCourseID
	}
	if rating != math.Trunc(rating) || rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var reviews []models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := courseExists(tx, courseID); err != nil {
			return err
		}

		var enrolled int64
		if err := tx.Model(&models.Enrollment{}).
			Where("course_id = ? AND student_id = ?", courseID, userID).
			Count(&enrolled).Error; err != nil {
			return errors.Wrap(err, "check enrollment")
		}
		if enrolled == 0 {
			return ErrNotEnrolled
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("course_id = ? AND user_id = ?", courseID, userID).
			Count(&existing).Error; err != nil {
			return errors.Wrap(err, "check existing review")
		}
		if existing > 0 {
			return ErrDuplicateReview
		}

		var user models.User
		if err := tx.Select("id", "name").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errors.Wrap(err, "load user")
		}

		review := models.Review{
			CourseID: courseID,
			UserID:   userID,
			UserName: user.Name,
			Rating:   int(rating),
			Text:     strings.TrimSpace(text),
		}
		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReview
			}
			return errors.Wrap(err, "create review")
		}

		return errors.Wrap(tx.Where("course_id = ?", courseID).Order("created_at ASC, id ASC").Find(&reviews).Error, "list reviews")
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("review submitted", "courseID", courseID, "userID", userID, "rating", int(rating))
	return reviews, nil
}

// ListReviews returns the course's reviews, oldest first, with their average rating.
func (s *ReviewService) ListReviews(ctx context.Context, rawCourseID string) ([]models.Review, float64, error) {
	courseID, ok := ParseID(rawCourseID)
	if !ok {
		return nil, 0, ErrInvalidCourseID
	}
	db := s.db.WithContext(ctx)
	if err := courseExists(db, courseID); err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	if err := db.Where("course_id = ?", courseID).Order("created_at ASC, id ASC").Find(&reviews).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list reviews")
	}
	return reviews, AverageRating(reviews), nil
}

// AverageRating is 0 for no reviews.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

func courseExists(db *gorm.DB, courseID uint) error {
	var count int64
	if err := db.Model(&models.Course{}).Where("id = ?", courseID).Count(&count).Error; err != nil {
		return errors.Wrap(err, "check course")
	}
	if count == 0 {
		return ErrCourseNotFound
	}
	return nil
}
