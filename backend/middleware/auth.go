package middleware

import (
	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware stores the token's user id and role in Locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, errorMessage(err))
		}
		c.Locals(utils.LocalUserID, claims.UserID)
		c.Locals(utils.LocalRole, claims.Role)
		return c.Next()
	}
}

func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, errorMessage(err))
		}

		if claims.Role != models.RoleAdmin {
			return utils.Forbidden(c, "Forbidden - Admin access required")
		}

		c.Locals(utils.LocalUserID, claims.UserID)
		c.Locals(utils.LocalRole, claims.Role)
		return c.Next()
	}
}

func errorMessage(err error) string {
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Message
	}
	return "Unauthorized"
}
