package trip

import (
	"net/url"
	"strings"

	"backend-milestomemories/internal/auth"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/shared/params"

	"github.com/gofiber/fiber/v2"
)

const defaultRadiusKm = 50

// RegisterRoutes mounts the trip resource. Fixed paths are registered before
// /:id so they are not taken for ids.
func RegisterRoutes(r fiber.Router, svc *Service, requireAuth, optionalAuth fiber.Handler) {
	r.Get("/", optionalAuth, func(c *fiber.Ctx) error {
		limit, offset := params.Page(c)
		viewer, _ := auth.UserID(c)
		trips, err := svc.List(c.UserContext(), ListFilter{
			Location: strings.TrimSpace(c.Query("location")),
			Year:     strings.TrimSpace(c.Query("year")),
			Limit:    limit,
			Offset:   offset,
		}, viewer)
		if err != nil {
			return err
		}
		return c.JSON(trips)
	})

	r.Post("/", requireAuth, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("Title and location are required")
		}
		userID, _ := auth.UserID(c)
		trip, err := svc.Create(c.UserContext(), userID, req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(trip)
	})

	r.Get("/featured", optionalAuth, func(c *fiber.Ctx) error {
		viewer, _ := auth.UserID(c)
		trips, err := svc.Featured(c.UserContext(), viewer)
		if err != nil {
			return err
		}
		return c.JSON(trips)
	})

	r.Get("/on-this-day", requireAuth, func(c *fiber.Ctx) error {
		userID, _ := auth.UserID(c)
		memories, err := svc.OnThisDay(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(memories)
	})

	r.Get("/yearly-recap/:year", requireAuth, func(c *fiber.Ctx) error {
		userID, _ := auth.UserID(c)
		recap, err := svc.YearlyRecap(c.UserContext(), userID, c.Params("year"))
		if err != nil {
			return err
		}
		return c.JSON(recap)
	})

	r.Get("/tags", func(c *fiber.Ctx) error {
		return c.JSON(svc.Tags(c.UserContext()))
	})

	r.Get("/nearby", optionalAuth, func(c *fiber.Ctx) error {
		lat, okLat, err := params.Float(c, "lat")
		if err != nil {
			return err
		}
		lng, okLng, err := params.Float(c, "lng")
		if err != nil {
			return err
		}
		if !okLat || !okLng || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return apperr.Validation("Valid lat and lng are required")
		}
		radius, ok, err := params.Float(c, "radius_km")
		if err != nil {
			return err
		}
		if !ok || radius <= 0 {
			radius = defaultRadiusKm
		}
		viewer, _ := auth.UserID(c)
		trips, err := svc.NearbyTrips(c.UserContext(), lat, lng, radius, viewer)
		if err != nil {
			return err
		}
		return c.JSON(trips)
	})

	r.Get("/destination/:name", optionalAuth, func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil {
			return apperr.Validation("Invalid destination")
		}
		viewer, _ := auth.UserID(c)
		trips, err := svc.ByDestination(c.UserContext(), name, viewer)
		if err != nil {
			return err
		}
		return c.JSON(trips)
	})

	r.Get("/:id", optionalAuth, func(c *fiber.Ctx) error {
		id, err := params.ID(c, "id", "Trip not found")
		if err != nil {
			return err
		}
		viewer, _ := auth.UserID(c)
		detail, err := svc.Get(c.UserContext(), id, viewer)
		if err != nil {
			return err
		}
		return c.JSON(detail)
	})

	r.Put("/:id", requireAuth, func(c *fiber.Ctx) error {
		id, err := params.ID(c, "id", "Trip not found")
		if err != nil {
			return err
		}
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("Invalid request body")
		}
		userID, _ := auth.UserID(c)
		trip, err := svc.Update(c.UserContext(), userID, id, req)
		if err != nil {
			return err
		}
		return c.JSON(trip)
	})

	r.Delete("/:id", requireAuth, func(c *fiber.Ctx) error {
		id, err := params.ID(c, "id", "Trip not found")
		if err != nil {
			return err
		}
		userID, _ := auth.UserID(c)
		if err := svc.Delete(c.UserContext(), userID, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Trip deleted successfully"})
	})

	r.Post("/:id/photos", requireAuth, func(c *fiber.Ctx) error {
		id, err := params.ID(c, "id", "Trip not found")
		if err != nil {
			return err
		}
		var in PhotoInput
		if err := c.BodyParser(&in); err != nil {
			return apperr.Validation("Photo URL is required")
		}
		userID, _ := auth.UserID(c)
		photo, err := svc.AddPhoto(c.UserContext(), userID, id, in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Delete("/:id/photos/:photoId", requireAuth, func(c *fiber.Ctx) error {
		id, err := params.ID(c, "id", "Trip not found")
		if err != nil {
			return err
		}
		photoID, err := params.ID(c, "photoId", "Photo not found")
		if err != nil {
			return err
		}
		userID, _ := auth.UserID(c)
		if err := svc.DeletePhoto(c.UserContext(), userID, id, photoID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Photo deleted successfully"})
	})
}
