package instrument

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// SpanHandler exposes a read endpoint over the span ring.
type SpanHandler struct {
	ring *SpanRing
}

func NewSpanHandler(ring *SpanRing) *SpanHandler {
	return &SpanHandler{ring: ring}
}

// RegisterRoutes adds the instrumentation routes.
func RegisterRoutes(app *fiber.App, h *SpanHandler, middleware ...fiber.Handler) {
	grp := app.Group("/api/_instrument", middleware...)
	grp.Get("/spans", h.List)
}

// List handles GET /api/_instrument/spans — recent spans, newest first.
func (h *SpanHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	records := h.ring.Recent(limit)

	// Optional filters on source/component/status.
	source := c.Query("source")
	component := c.Query("component")
	status := c.Query("status")
	if source != "" || component != "" || status != "" {
		filtered := records[:0]
		for _, r := range records {
			if source != "" && r.Source != source {
				continue
			}
			if component != "" && r.Component != component {
				continue
			}
			if status != "" && (r.Status == nil || *r.Status != status) {
				continue
			}
			filtered = append(filtered, r)
		}
		records = filtered
	}

	return c.JSON(fiber.Map{"data": records})
}
