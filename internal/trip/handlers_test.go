package trip

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-milestomemories/internal/auth"
	"backend-milestomemories/internal/cache"
	"backend-milestomemories/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newTripApp(t *testing.T) (*fiber.App, pgxmock.PgxPoolIface, string) {
	t.Helper()
	svc, mock := newMockService(t, cache.New(nil))
	tokens := auth.NewTokens("secret", 0)
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler})
	RegisterRoutes(app.Group("/api/trips"), svc, auth.Required(tokens), auth.Optional(tokens))
	token, _ := tokens.Issue(1, "demo@x.com")
	return app, mock, token
}

func TestFixedRoutesAreNotTakenForIDs(t *testing.T) {
	app, mock, _ := newTripApp(t)

	mock.ExpectQuery(`SELECT DISTINCT mood`).
		WithArgs().
		WillReturnRows(pgxmock.NewRows([]string{"mood"}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/trips/tags", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("tags: %v %d", err, resp.StatusCode)
	}
	var tags []string
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil || len(tags) != len(DefaultTags) {
		t.Fatalf("unexpected tags: %v %v", tags, err)
	}

	mock.ExpectQuery(`WHERE t.location ILIKE \$1`).
		WithArgs("%Kyoto, Japan%").
		WillReturnRows(pgxmock.NewRows(tripColumns))
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/trips/destination/Kyoto%2C%20Japan", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("destination: %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/trips/not-a-number", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTripHandlersAuth(t *testing.T) {
	app, mock, token := newTripApp(t)

	for _, path := range []string{"/api/trips/on-this-day", "/api/trips/yearly-recap/2024"} {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}

	body, _ := json.Marshal(CreateRequest{Title: "Kyoto"})
	req := httptest.NewRequest(http.MethodPost, "/api/trips", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without location, got %d", resp.StatusCode)
	}
	var payload map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload["error"] != "Title and location are required" {
		t.Fatalf("unexpected error body: %v", payload)
	}

	mock.ExpectQuery(`SELECT user_id FROM trips`).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(9)))
	req = httptest.NewRequest(http.MethodDelete, "/api/trips/4", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 deleting someone else's trip, got %d", resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNearbyHandlerValidation(t *testing.T) {
	app, _, _ := newTripApp(t)

	for _, path := range []string{
		"/api/trips/nearby",
		"/api/trips/nearby?lat=35",
		"/api/trips/nearby?lat=95&lng=10",
		"/api/trips/nearby?lat=abc&lng=10",
	} {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestListHandlerPagination(t *testing.T) {
	app, mock, token := newTripApp(t)

	rows := pgxmock.NewRows(tripColumns)
	addTrip(rows, 1, 1, "Kyoto", "Kyoto, Japan", 0)
	mock.ExpectQuery(`WHERE t.location ILIKE \$1 ORDER BY`).
		WithArgs("%kyoto%", 100, 10).
		WillReturnRows(rows)
	expectFlags(mock, []any{int64(1), int64(1)}, []int64{1}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/trips?location=kyoto&limit=1000&offset=10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %v %d", err, resp.StatusCode)
	}
	var trips []Trip
	if err := json.NewDecoder(resp.Body).Decode(&trips); err != nil || len(trips) != 1 {
		t.Fatalf("unexpected body: %v %v", trips, err)
	}
	if trips[0].Liked == nil || !*trips[0].Liked {
		t.Fatalf("expected liked flag for the viewer")
	}
}
