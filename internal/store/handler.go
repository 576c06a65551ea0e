package store

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// RunLister is the read side of the audit store.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]map[string]any, error)
}

// AuditHandler exposes a read endpoint over recorded validation runs.
type AuditHandler struct {
	runs RunLister
}

func NewAuditHandler(runs RunLister) *AuditHandler {
	return &AuditHandler{runs: runs}
}

// RegisterRoutes adds the audit routes.
func RegisterRoutes(app *fiber.App, h *AuditHandler, middleware ...fiber.Handler) {
	grp := app.Group("/api/_audit", middleware...)
	grp.Get("/runs", h.List)
}

// List handles GET /api/_audit/runs — recent terminal results, newest
// first.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	runs, err := h.runs.RecentRuns(c.Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []map[string]any{}
	}
	return c.JSON(fiber.Map{"data": runs})
}
