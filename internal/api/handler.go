package api

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"filadb-validator/internal/instrument"
	"filadb-validator/internal/job"
	"filadb-validator/internal/validator"
)

// Handler exposes the validation API: submit a batch, poll the job.
type Handler struct {
	jobs *job.Store
	orch *validator.Orchestrator
	inst instrument.Instrumenter
}

func NewHandler(jobs *job.Store, orch *validator.Orchestrator, inst instrument.Instrumenter) *Handler {
	if inst == nil {
		inst = &instrument.NoopInstrumenter{}
	}
	return &Handler{jobs: jobs, orch: orch, inst: inst}
}

// RegisterRoutes adds the validation routes.
func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	v1 := app.Group("/api/v1", middleware...)
	v1.Post("/validate", h.Validate)
	v1.Get("/jobs/:id", h.GetJob)
}

// validateRequest is the submitted batch. Changes stays loosely typed:
// the orchestrator owns rejection of non-array payloads so that the
// failure surfaces as a terminal job event, same as every other input
// problem.
type validateRequest struct {
	Changes any            `json:"changes"`
	Images  map[string]any `json:"images"`
}

// Validate handles POST /api/v1/validate — start an async validation
// run and return the job to poll.
func (h *Handler) Validate(c *fiber.Ctx) error {
	var req validateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return InvalidPayloadError("Invalid JSON body")
	}

	changes, _ := req.Changes.([]any)

	j := h.jobs.Create()

	// The run outlives the request; it gets a fresh context carrying
	// only the instrumenter.
	ctx := instrument.WithInstrumenter(context.Background(), h.inst)
	ctx = instrument.WithTraceID(ctx, j.ID())
	go h.orch.Run(ctx, j, changes, req.Images)

	return c.Status(202).JSON(fiber.Map{
		"data": fiber.Map{
			"job_id": j.ID(),
			"status": job.StatusRunning,
		},
	})
}

// GetJob handles GET /api/v1/jobs/:id — snapshot of a run's events and
// terminal result.
func (h *Handler) GetJob(c *fiber.Ctx) error {
	id := c.Params("id")
	j, ok := h.jobs.Get(id)
	if !ok {
		return NotFoundError("job", id)
	}
	return c.JSON(fiber.Map{"data": j.Snapshot()})
}
