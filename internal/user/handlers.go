package user

import (
	"backend-milestomemories/internal/auth"
	"backend-milestomemories/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the current user's endpoints. Every route needs a
// token.
func RegisterRoutes(r fiber.Router, svc *Service, requireAuth fiber.Handler) {
	r.Put("/profile", requireAuth, func(c *fiber.Ctx) error {
		var req ProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("Invalid request body")
		}
		userID, _ := auth.UserID(c)
		me, err := svc.UpdateProfile(c.UserContext(), userID, req)
		if err != nil {
			return err
		}
		return c.JSON(me)
	})

	r.Get("/trips", requireAuth, func(c *fiber.Ctx) error {
		userID, _ := auth.UserID(c)
		trips, err := svc.Trips(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(trips)
	})

	r.Get("/saved", requireAuth, func(c *fiber.Ctx) error {
		userID, _ := auth.UserID(c)
		trips, err := svc.Saved(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(trips)
	})

	r.Get("/stats", requireAuth, func(c *fiber.Ctx) error {
		userID, _ := auth.UserID(c)
		stats, err := svc.Stats(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(stats)
	})
}
