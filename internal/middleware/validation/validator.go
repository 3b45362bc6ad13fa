package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/learner-analytics/backend/pkg/logger"
)

type Config struct {
	MaxQueryParamLength int
	MaxBodyQueryLength  int
}

// Middleware rejects malformed input before it reaches a handler: JSON
// only on writes, bounded and well-formed query parameters everywhere.
// The admin SQL guard lives in the cache layer; this is the outer
// transport check.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxQueryParamLength == 0 {
		cfg.MaxQueryParamLength = 200
	}
	if cfg.MaxBodyQueryLength == 0 {
		cfg.MaxBodyQueryLength = 5000
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost {
			contentType := c.Get("Content-Type")
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
			if len(c.Body()) > cfg.MaxBodyQueryLength {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Request body exceeds maximum length",
				})
			}
		}

		var bad string
		c.Context().QueryArgs().VisitAll(func(key, value []byte) {
			if bad != "" {
				return
			}
			if len(value) > cfg.MaxQueryParamLength || !utf8.Valid(value) || hasControlChars(value) {
				bad = string(key)
			}
		})
		if bad != "" {
			logger.Warn("Malformed query parameter rejected",
				zap.String("param", bad),
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid query parameter: " + bad,
			})
		}

		return c.Next()
	}
}

func hasControlChars(value []byte) bool {
	for _, b := range value {
		if b < 0x20 && b != '\t' {
			return true
		}
	}
	return false
}
