package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const genericMessage = "Internal server error"

// Handler is the fiber ErrorHandler rendering every failure as {"error": msg}.
// Server errors are logged with their cause and answered with the public
// message only.
func Handler(c *fiber.Ctx, err error) error {
	status := Status(err)
	message := genericMessage

	var appErr *Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		message = appErr.Message
	case errors.As(err, &fiberErr):
		message = fiberErr.Message
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
