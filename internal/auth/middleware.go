package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"filadb-validator/internal/api"
)

// Middleware returns a Fiber middleware that validates bearer tokens.
// An empty secret disables auth entirely (local development mode).
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		header := c.Get("Authorization")
		if header == "" {
			return api.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return api.UnauthorizedError("Invalid auth header format")
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return api.UnauthorizedError("Invalid or expired token")
		}

		c.Locals("subject", claims.Subject)
		return c.Next()
	}
}
