package serverutils

import (
	"math"
	"strconv"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/internal/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimitMiddleware limits requests per authenticated user. It must run
// after the JWT middleware. A limiter outage lets requests through.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string, log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		key := scope + ":" + UserID(ctx).String()

		res, err := limiter.Allow(ctx.UserContext(), key)
		if err != nil {
			log.Warn("RATELIMIT", "Limiter unavailable, allowing request", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			return ctx.Next()
		}
		if !res.Allowed {
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponseWithData(
				fiber.StatusTooManyRequests,
				"Too many requests",
				fiber.Map{"retry_after": retryAfter},
			))
		}
		return ctx.Next()
	}
}
