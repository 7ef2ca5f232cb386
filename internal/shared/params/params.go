// Package params reads typed path and query values from fiber requests.
package params

import (
	"strconv"

	"backend-milestomemories/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ID parses a positive integer path parameter. A malformed value is answered
// with notFound, since no entity can carry that id.
func ID(c *fiber.Ctx, name, notFound string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound(notFound)
	}
	return id, nil
}

// Page returns limit and offset from the query string, clamped to
// [1, MaxLimit] and [0, ∞).
func Page(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", DefaultLimit)
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Float parses an optional float query value; ok is false when absent.
func Float(c *fiber.Ctx, name string) (v float64, ok bool, err error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, apperr.Validation("Invalid " + name)
	}
	return v, true, nil
}
