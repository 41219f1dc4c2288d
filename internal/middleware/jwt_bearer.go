package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jobtradesasa/server/internal/utils"
)

// JWTFromHeader reads "Authorization: Bearer <token>" and stores the
// verified claims for the rest of the chain.
func JWTFromHeader(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseJWT(secret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}
