package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware limits each client IP to perMinute requests in a
// fixed one-minute window. The key is c.IP(), so proxy headers only count
// when the app is configured to trust them. Redis failures let the request
// through.
func RateLimitMiddleware(rdb redis.Cmdable, perMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if perMinute <= 0 {
			return c.Next()
		}

		ctx := c.UserContext()
		now := time.Now()
		window := now.Truncate(time.Minute)
		key := fmt.Sprintf("rl:ip:%s:minute:%d", c.IP(), window.Unix())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Next()
		}
		if count == 1 {
			rdb.Expire(ctx, key, 2*time.Minute)
		}

		reset := window.Add(time.Minute)
		remaining := int64(perMinute) - count
		if remaining < 0 {
			remaining = 0
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if count > int64(perMinute) {
			retryAfter := int64(reset.Sub(now).Seconds()) + 1
			c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))

			return c.Status(fiber.StatusTooManyRequests).JSON(models.PlanError{
				ErrorCode: models.ErrRateLimited,
				Message:   "Too many requests per minute",
				Details: fiber.Map{
					"limit":       perMinute,
					"retry_after": retryAfter,
				},
			})
		}

		return c.Next()
	}
}
