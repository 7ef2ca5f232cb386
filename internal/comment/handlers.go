package comment

import (
	"backend-milestomemories/internal/auth"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/shared/params"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, requireAuth fiber.Handler) {
	r.Get("/trip/:id", func(c *fiber.Ctx) error {
		tripID, err := params.ID(c, "id", "Trip not found")
		if err != nil {
			return err
		}
		comments, err := svc.List(c.UserContext(), tripID)
		if err != nil {
			return err
		}
		return c.JSON(comments)
	})

	r.Post("/trip/:id", requireAuth, func(c *fiber.Ctx) error {
		tripID, err := params.ID(c, "id", "Trip not found")
		if err != nil {
			return err
		}
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("Comment content is required")
		}
		userID, _ := auth.UserID(c)
		comment, err := svc.Create(c.UserContext(), userID, tripID, req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	r.Put("/:id", requireAuth, func(c *fiber.Ctx) error {
		commentID, err := params.ID(c, "id", "Comment not found")
		if err != nil {
			return err
		}
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		userID, _ := auth.UserID(c)
		comment, err := svc.Update(c.UserContext(), userID, commentID, req)
		if err != nil {
			return err
		}
		return c.JSON(comment)
	})

	r.Delete("/:id", requireAuth, func(c *fiber.Ctx) error {
		commentID, err := params.ID(c, "id", "Comment not found")
		if err != nil {
			return err
		}
		userID, _ := auth.UserID(c)
		if err := svc.Delete(c.UserContext(), userID, commentID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
	})
}
