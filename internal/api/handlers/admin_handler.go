package handlers

import (
	"errors"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/learner-analytics/backend/internal/cache"
	"github.com/learner-analytics/backend/internal/storage/snapshot"
	"github.com/learner-analytics/backend/pkg/config"
)

type AdminHandler struct {
	store *cache.Service
	data  config.DataConfig
}

func NewAdminHandler(store *cache.Service, data config.DataConfig) *AdminHandler {
	return &AdminHandler{
		store: store,
		data:  data,
	}
}

// RawQuery is the read-only SQL escape hatch for operators. Unsafe
// statements are rejected before they reach the store.
func (h *AdminHandler) RawQuery(c *fiber.Ctx) error {
	var req struct {
		Query string `json:"query"`
	}

	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.Query == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Query is required", nil)
	}

	rows, err := h.store.RawQuery(req.Query)
	if err != nil {
		switch {
		case errors.Is(err, cache.ErrUnsafeQuery):
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, cache.ErrUnavailable):
			return errorResponse(c, fiber.StatusServiceUnavailable, "Analytics data is not available yet", err)
		default:
			return errorResponse(c, fiber.StatusInternalServerError, "Query execution failed", err)
		}
	}

	return c.JSON(fiber.Map{
		"rows":  rows,
		"count": len(rows),
	})
}

func (h *AdminHandler) SyncStatus(c *fiber.Ctx) error {
	status, err := snapshot.ReadSyncStatus(filepath.Join(h.data.Dir, h.data.SyncStatusFile))
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to read sync status", err)
	}
	if status == nil {
		return c.JSON(fiber.Map{"available": false})
	}

	return c.JSON(fiber.Map{
		"available": true,
		"status":    status,
	})
}

func (h *AdminHandler) QualityReport(c *fiber.Ctx) error {
	report, err := snapshot.ReadQualityReport(filepath.Join(h.data.Dir, h.data.QualityReportFile))
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to read quality report", err)
	}
	if report == nil {
		return c.JSON(fiber.Map{"available": false})
	}

	return c.JSON(fiber.Map{
		"available": true,
		"report":    report,
	})
}

// RefreshCache forces a reload from the snapshot regardless of TTL.
func (h *AdminHandler) RefreshCache(c *fiber.Ctx) error {
	if err := h.store.Refresh(); err != nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Cache refresh failed", err)
	}

	return c.JSON(fiber.Map{
		"refreshed": true,
		"available": h.store.Available(),
	})
}
