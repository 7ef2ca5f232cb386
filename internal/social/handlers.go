package social

import (
	"context"

	"backend-milestomemories/internal/auth"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/shared/params"

	"github.com/gofiber/fiber/v2"
)

// RegisterTripRoutes mounts like and save toggles on the trips group.
func RegisterTripRoutes(r fiber.Router, svc *Service, requireAuth fiber.Handler) {
	r.Post("/:id/like", requireAuth, func(c *fiber.Ctx) error {
		return toggle(c, svc.Like)
	})
	r.Delete("/:id/like", requireAuth, func(c *fiber.Ctx) error {
		return toggle(c, svc.Unlike)
	})
	r.Post("/:id/save", requireAuth, func(c *fiber.Ctx) error {
		return toggle(c, svc.Save)
	})
	r.Delete("/:id/save", requireAuth, func(c *fiber.Ctx) error {
		return toggle(c, svc.Unsave)
	})
}

// RegisterUserRoutes mounts the linked-accounts endpoints on the users group.
func RegisterUserRoutes(r fiber.Router, svc *Service, requireAuth fiber.Handler) {
	r.Get("/social", requireAuth, func(c *fiber.Ctx) error {
		userID, _ := auth.UserID(c)
		links, err := svc.Links(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(links)
	})

	r.Put("/social", requireAuth, func(c *fiber.Ctx) error {
		var req LinksRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("Invalid request body")
		}
		userID, _ := auth.UserID(c)
		links, err := svc.UpdateLinks(c.UserContext(), userID, req)
		if err != nil {
			return err
		}
		return c.JSON(links)
	})
}

func toggle[T any](c *fiber.Ctx, op func(ctx context.Context, userID, tripID int64) (T, error)) error {
	tripID, err := params.ID(c, "id", "Trip not found")
	if err != nil {
		return err
	}
	userID, _ := auth.UserID(c)
	state, err := op(c.UserContext(), userID, tripID)
	if err != nil {
		return err
	}
	return c.JSON(state)
}
