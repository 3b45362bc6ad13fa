package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/learner-analytics/backend/internal/cache"
	rediscache "github.com/learner-analytics/backend/internal/cache/redis"
)

type LearnerHandler struct {
	store     *cache.Service
	responses *rediscache.Client
	ttl       time.Duration
}

func NewLearnerHandler(store *cache.Service, responses *rediscache.Client, ttl time.Duration) *LearnerHandler {
	return &LearnerHandler{
		store:     store,
		responses: responses,
		ttl:       ttl,
	}
}

func (h *LearnerHandler) ListLearners(c *fiber.Ctx) error {
	page, pageSize := parsePagination(c)
	filter := parseFilter(c)
	sortBy := c.Query("sort", "skill_score")
	descending := c.Query("order", "desc") != "asc"

	return respondCached(c, h.responses, h.ttl, func() interface{} {
		result := h.store.List(filter, page, pageSize, sortBy, descending)
		return fiber.Map{
			"learners":  result.Items,
			"total":     result.Total,
			"page":      result.Page,
			"page_size": result.PageSize,
			"available": h.store.Available(),
		}
	})
}

func (h *LearnerHandler) SearchLearners(c *fiber.Ctx) error {
	term := c.Query("q")
	if term == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Query parameter 'q' is required", nil)
	}
	limit := c.QueryInt("limit", 50)

	return respondCached(c, h.responses, h.ttl, func() interface{} {
		results := h.store.Search(term, limit)
		return fiber.Map{
			"learners":  results,
			"count":     len(results),
			"available": h.store.Available(),
		}
	})
}

func (h *LearnerHandler) GetLearner(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Learner id must be a positive integer", nil)
	}

	learner, err := h.store.GetByAccountID(int64(id))
	if err != nil {
		return learnerLookupError(c, err)
	}

	return c.JSON(learner)
}

func (h *LearnerHandler) GetLearnerByEmail(c *fiber.Ctx) error {
	email := c.Params("email")
	if email == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Email is required", nil)
	}

	learner, err := h.store.GetByEmail(email)
	if err != nil {
		return learnerLookupError(c, err)
	}

	return c.JSON(learner)
}

func learnerLookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Learner not found", nil)
	case errors.Is(err, cache.ErrUnavailable):
		return errorResponse(c, fiber.StatusServiceUnavailable, "Analytics data is not available yet", err)
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to look up learner", err)
	}
}
