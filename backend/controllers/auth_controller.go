package controllers

import (
	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	Auth *services.AuthService
	Cfg  *config.Config
	Log  *utils.Logger
}

func NewAuthController(auth *services.AuthService, cfg *config.Config, log *utils.Logger) *AuthController {
	return &AuthController{Auth: auth, Cfg: cfg, Log: log}
}

type LoginRequest struct {
	Email    string `json:"email" example:"student@example.com"`
	Password string `json:"password" example:"secret123"`
}

// [+] Register godoc
// @Summary Register a new user
// @Description Creates a new account. Admin sign-up follows ADMIN_REGISTRATION_POLICY.
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "User registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	user, err := ac.Auth.Register(c.UserContext(), input)
	if err != nil {
		return respondError(c, ac.Log, err)
	}
	return ac.issueToken(c, fiber.StatusCreated, user)
}

// [+] Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	user, err := ac.Auth.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return respondError(c, ac.Log, err)
	}
	return ac.issueToken(c, fiber.StatusOK, user)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	user, err := ac.Auth.GetUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, ac.Log, err)
	}
	return c.JSON(user)
}

func (ac *AuthController) issueToken(c *fiber.Ctx, status int, user *models.User) error {
	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		ac.Log.Error("could not sign token", "userID", user.ID, "error", err)
		return utils.InternalServerError(c, "Could not generate token")
	}

	return c.Status(status).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}
