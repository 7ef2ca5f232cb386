package auth

import (
	"strings"

	"backend-milestomemories/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "user_id"
	localEmail  = "email"
)

// Required rejects requests without a valid bearer token and stores the
// caller's id and email in locals.
func Required(tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return apperr.Unauthorized("Access token required")
		}
		claims, err := tokens.Validate(token)
		if err != nil {
			return apperr.Unauthorized("Invalid or expired token")
		}
		setIdentity(c, claims)
		return c.Next()
	}
}

// Optional attaches the caller's identity when a valid token is present and
// otherwise lets the request through anonymously.
func Optional(tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerFromHeader(c.Get(fiber.HeaderAuthorization)); token != "" {
			if claims, err := tokens.Validate(token); err == nil {
				setIdentity(c, claims)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller, if any.
func UserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(localUserID).(int64)
	return id, ok && id != 0
}

func setIdentity(c *fiber.Ctx, claims *Claims) {
	c.Locals(localUserID, claims.UserID)
	c.Locals(localEmail, claims.Email)
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
