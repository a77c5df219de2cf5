package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/example/foodlist/internal/utils"
)

// PhoneCheckRateLimit limits phone-check requests per phone number (or IP
// when the body has none) using Redis if available. Cache errors fail open.
func PhoneCheckRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			PhoneNumber string `json:"phone_number"`
		}
		_ = c.BodyParser(&req)

		subject := c.IP()
		if phone, err := utils.NormalizePhone(req.PhoneNumber); err == nil {
			subject = phone
		} else if raw := strings.TrimSpace(req.PhoneNumber); raw != "" {
			subject = raw
		}

		key := "rl:phone-check:" + subject
		var incr *redis.IntCmd
		// EXPIRE NX also repairs a counter left without a TTL.
		_, err := cache.TxPipelined(c.UserContext(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(c.UserContext(), key)
			pipe.ExpireNX(c.UserContext(), key, time.Minute)
			return nil
		})
		if err != nil {
			logger.Warn("rate limit cache unavailable", slog.Any("error", err))
			return c.Next()
		}
		if incr.Val() > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many confirmation requests, try again later")
		}
		return c.Next()
	}
}
