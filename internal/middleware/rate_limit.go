package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/unishare-api/internal/utils"
)

// RateLimit throttles authenticated callers per university and user, falling back to the
// client IP when no identity is present.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		KeyGenerator: rateLimitKey(identifier),
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry later")
		},
	})
}

func rateLimitKey(identifier string) func(*fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		userID, _ := c.Locals(LocalUserID).(uint)
		if userID == 0 {
			return fmt.Sprintf("%s:ip:%s", identifier, c.IP())
		}
		universityID, _ := c.Locals(LocalUniversityID).(uint)
		return fmt.Sprintf("%s:u%d:%d", identifier, universityID, userID)
	}
}
