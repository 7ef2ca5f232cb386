package admin

import (
	"backend-milestomemories/internal/shared/params"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the moderation dashboard behind guard.
func RegisterRoutes(r fiber.Router, svc *Service, guard fiber.Handler) {
	r.Use(guard)

	r.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	})

	r.Get("/users", func(c *fiber.Ctx) error {
		users, err := svc.Users(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(users)
	})

	r.Get("/trips", func(c *fiber.Ctx) error {
		trips, err := svc.Trips(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(trips)
	})

	r.Delete("/users/:id", func(c *fiber.Ctx) error {
		id, err := params.ID(c, "id", "User not found")
		if err != nil {
			return err
		}
		if err := svc.DeleteUser(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "User deleted successfully"})
	})

	r.Delete("/trips/:id", func(c *fiber.Ctx) error {
		id, err := params.ID(c, "id", "Trip not found")
		if err != nil {
			return err
		}
		if err := svc.DeleteTrip(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Trip deleted successfully"})
	})
}
