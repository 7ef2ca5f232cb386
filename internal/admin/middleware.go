package admin

import (
	"crypto/subtle"

	"backend-milestomemories/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

const TokenHeader = "X-Admin-Token"

// RequireToken admits requests whose X-Admin-Token matches token. An empty
// token locks the admin routes entirely.
func RequireToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		given := c.Get(TokenHeader)
		if token == "" || given == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			return apperr.Forbidden("Admin access required")
		}
		return c.Next()
	}
}
