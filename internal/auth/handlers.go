package auth

import (
	"backend-milestomemories/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts /register, /login and /me. guards run in front of
// the two credential endpoints.
func RegisterRoutes(r fiber.Router, svc *Service, requireAuth fiber.Handler, guards ...fiber.Handler) {
	guarded := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), h)
	}

	r.Post("/register", guarded(func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		session, err := svc.Register(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})...)

	r.Post("/login", guarded(func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		session, err := svc.Login(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.JSON(session)
	})...)

	r.Get("/me", requireAuth, func(c *fiber.Ctx) error {
		userID, _ := UserID(c)
		me, err := svc.Me(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(me)
	})
}
