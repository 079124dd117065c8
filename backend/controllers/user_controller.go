package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Auth        *services.AuthService
	Enrollments *services.EnrollmentService
	Log         *utils.Logger
}

func NewUserController(auth *services.AuthService, enrollments *services.EnrollmentService, log *utils.Logger) *UserController {
	return &UserController{Auth: auth, Enrollments: enrollments, Log: log}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data with enrolled course ids
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	user, err := uc.Auth.GetUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, uc.Log, err)
	}
	courseIDs, err := uc.Auth.EnrolledCourseIDs(c.UserContext(), userID)
	if err != nil {
		return respondError(c, uc.Log, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"role":            user.Role,
		"createdAt":       user.CreatedAt,
		"enrolledCourses": courseIDs,
	})
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates name, email or password. A new password needs currentPassword.
// @Tags users
// @Accept json
// @Produce json
// @Param input body services.ProfileUpdate true "Profile update data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input services.ProfileUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	user, err := uc.Auth.UpdateProfile(c.UserContext(), userID, input)
	if err != nil {
		return respondError(c, uc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// GetEnrolledCourses godoc
// @Summary Student dashboard
// @Description Courses the user is enrolled in, each with the user's progress record
// @Tags users
// @Produce json
// @Success 200 {array} models.EnrolledCourse
// @Security ApiKeyAuth
// @Router /user/courses [get]
func (uc *UserController) GetEnrolledCourses(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courses, err := uc.Enrollments.ListEnrolledCourses(c.UserContext(), userID)
	if err != nil {
		return respondError(c, uc.Log, err)
	}
	return c.JSON(courses)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param role query string false "student or admin"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Security ApiKeyAuth
// @Router /users [get]
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("pageSize", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := uc.Auth.ListUsers(c.UserContext(), c.Query("role"), page, pageSize)
	if err != nil {
		return respondError(c, uc.Log, err)
	}
	return utils.Paginate(c, users, total, page, pageSize)
}
