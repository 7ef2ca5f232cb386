// Package middleware holds fiber middleware shared across route groups.
package middleware

import (
	"context"
	"fmt"
	"time"

	"backend-milestomemories/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CheckRateLimit counts a hit for (resource, id) in the current window and
// reports whether it is still within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

// RateLimit allows limit requests per window per client IP on resource. It
// is a pass-through without redis and fails open when redis errors.
func RateLimit(rdb *redis.Client, resource string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}
		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, c.IP(), limit, window)
		if err != nil {
			log.Warn().Err(err).Str("resource", resource).Msg("rate limit unavailable")
			return c.Next()
		}
		if !allowed {
			return &apperr.Error{Status: fiber.StatusTooManyRequests, Message: "Too many requests, please try again later"}
		}
		return c.Next()
	}
}
