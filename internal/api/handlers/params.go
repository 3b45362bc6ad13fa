package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	rediscache "github.com/learner-analytics/backend/internal/cache/redis"
	"github.com/learner-analytics/backend/internal/storage/models"
	"github.com/learner-analytics/backend/pkg/logger"
	"github.com/learner-analytics/backend/pkg/utils"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// parsePagination clamps page to >= 1 and pageSize to [1, 100].
func parsePagination(c *fiber.Ctx) (page, pageSize int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize = c.QueryInt("page_size", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}

func parseFilter(c *fiber.Ctx) models.LearnerFilter {
	return models.LearnerFilter{
		Status:           c.Query("status"),
		JourneyStage:     c.Query("stage"),
		CompanySubstring: c.Query("company"),
		Country:          c.Query("country"),
		Region:           c.Query("region"),
		IsCertified:      queryBool(c, "certified"),
		UsesProducts:     queryBool(c, "uses_products"),
	}
}

func queryBool(c *fiber.Ctx, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// errorResponse returns a uniform error body. The correlation id ties
// the client-visible error to the server log line without leaking
// internals.
func errorResponse(c *fiber.Ctx, status int, message string, err error) error {
	correlationID := uuid.New().String()
	if err != nil {
		logger.Error("Request failed",
			zap.String("correlation_id", correlationID),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{
		"error":          message,
		"correlation_id": correlationID,
	})
}

// respondCached serves the response from the redis response cache when
// one is configured, otherwise builds it fresh. Cache keys hash the
// full request URI so every filter combination caches independently.
func respondCached(c *fiber.Ctx, responses *rediscache.Client, ttl time.Duration, build func() interface{}) error {
	if responses == nil {
		return c.JSON(build())
	}

	key := utils.HashString(string(c.Request().URI().RequestURI()))
	ctx := context.Background()

	var cached map[string]interface{}
	hit, err := responses.GetResponse(ctx, key, &cached)
	if err != nil {
		logger.Warn("Response cache read failed", zap.Error(err))
	}
	if hit {
		return c.JSON(cached)
	}

	body := build()
	if err := responses.SetResponse(ctx, key, body, ttl); err != nil {
		logger.Warn("Response cache write failed", zap.Error(err))
	}
	return c.JSON(body)
}
