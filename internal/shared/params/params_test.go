package params

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestIDAndPage(t *testing.T) {
	app := fiber.New()
	app.Get("/trips/:id", func(c *fiber.Ctx) error {
		id, err := ID(c, "id", "Trip not found")
		if err != nil {
			return c.SendStatus(http.StatusNotFound)
		}
		limit, offset := Page(c)
		return c.JSON(fiber.Map{"id": id, "limit": limit, "offset": offset})
	})

	cases := []struct {
		path   string
		status int
	}{
		{"/trips/12", http.StatusOK},
		{"/trips/abc", http.StatusNotFound},
		{"/trips/-3", http.StatusNotFound},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
		if err != nil || resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %v %v", tc.path, tc.status, resp.StatusCode, err)
		}
	}
}

func TestPageClamps(t *testing.T) {
	app := fiber.New()
	var gotLimit, gotOffset int
	app.Get("/", func(c *fiber.Ctx) error {
		gotLimit, gotOffset = Page(c)
		return nil
	})

	cases := []struct {
		query          string
		limit, offset int
	}{
		{"", DefaultLimit, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=5000", MaxLimit, 0},
		{"?limit=0&offset=-4", DefaultLimit, 0},
		{"?limit=abc", DefaultLimit, 0},
	}
	for _, tc := range cases {
		if _, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)); err != nil {
			t.Fatalf("request: %v", err)
		}
		if gotLimit != tc.limit || gotOffset != tc.offset {
			t.Fatalf("%q: expected %d/%d, got %d/%d", tc.query, tc.limit, tc.offset, gotLimit, gotOffset)
		}
	}
}

func TestFloat(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		v, ok, err := Float(c, "lat")
		if err != nil {
			return c.SendStatus(http.StatusBadRequest)
		}
		return c.JSON(fiber.Map{"v": v, "ok": ok})
	})
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/?lat=oops", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed float, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/?lat=35.01", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
