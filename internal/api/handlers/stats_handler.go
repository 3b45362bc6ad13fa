package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/learner-analytics/backend/internal/cache"
	rediscache "github.com/learner-analytics/backend/internal/cache/redis"
)

// ROI assumption defaults, overridable per request.
const (
	defaultHoursSavedPerDay = 0.5
	defaultHourlyRateUSD    = 75.0
)

type StatsHandler struct {
	store     *cache.Service
	responses *rediscache.Client
	ttl       time.Duration
}

func NewStatsHandler(store *cache.Service, responses *rediscache.Client, ttl time.Duration) *StatsHandler {
	return &StatsHandler{
		store:     store,
		responses: responses,
		ttl:       ttl,
	}
}

func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	return respondCached(c, h.responses, h.ttl, func() interface{} {
		overview := h.store.Overview()
		return fiber.Map{
			"overview":  overview,
			"by_status": h.store.GroupBy("status", parseFilter(c)),
			"available": h.store.Available(),
		}
	})
}

func (h *StatsHandler) ByRegion(c *fiber.Ctx) error {
	return h.grouped(c, "region")
}

func (h *StatsHandler) ByStatus(c *fiber.Ctx) error {
	return h.grouped(c, "status")
}

func (h *StatsHandler) ByCompany(c *fiber.Ctx) error {
	return h.grouped(c, "company")
}

func (h *StatsHandler) grouped(c *fiber.Ctx, dimension string) error {
	return respondCached(c, h.responses, h.ttl, func() interface{} {
		return fiber.Map{
			"dimension": dimension,
			"groups":    h.store.GroupBy(dimension, parseFilter(c)),
			"available": h.store.Available(),
		}
	})
}

func (h *StatsHandler) TopLearners(c *fiber.Ctx) error {
	metric := c.Query("metric", "skill_score")
	n := c.QueryInt("n", 10)

	return respondCached(c, h.responses, h.ttl, func() interface{} {
		return fiber.Map{
			"metric":    metric,
			"learners":  h.store.TopN(metric, n),
			"available": h.store.Available(),
		}
	})
}

// ROI estimates the value of recent product adoption from the aggregate
// rollup. The assumptions are request parameters so the caller owns the
// model, not the API.
func (h *StatsHandler) ROI(c *fiber.Ctx) error {
	hoursPerDay := queryFloat(c, "hours_saved_per_day", defaultHoursSavedPerDay)
	hourlyRate := queryFloat(c, "hourly_rate", defaultHourlyRateUSD)

	return respondCached(c, h.responses, h.ttl, func() interface{} {
		overview := h.store.Overview()

		hoursSaved90 := float64(overview.TotalProductDays90) * hoursPerDay
		valueUSD90 := hoursSaved90 * hourlyRate
		hoursSavedAllTime := float64(overview.TotalProductDays) * hoursPerDay

		return fiber.Map{
			"assumptions": fiber.Map{
				"hours_saved_per_day": hoursPerDay,
				"hourly_rate_usd":     hourlyRate,
			},
			"active_product_users":   overview.ActiveProductUsers,
			"product_days_90d":       overview.TotalProductDays90,
			"hours_saved_90d":        hoursSaved90,
			"estimated_value_usd_90d": valueUSD90,
			"hours_saved_all_time":   hoursSavedAllTime,
			"available":              h.store.Available(),
		}
	})
}

func queryFloat(c *fiber.Ctx, name string, fallback float64) float64 {
	v := c.QueryFloat(name, fallback)
	if v <= 0 {
		return fallback
	}
	return v
}
