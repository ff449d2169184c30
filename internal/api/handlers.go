package api

import (
	"context"
	"errors"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/ajespoo/RoutePlanner/internal/planner"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ServiceName is reported by the health endpoint
const ServiceName = "route-planner"

// Planner is the adapter surface the handlers need
type Planner interface {
	Plan(ctx context.Context, req planner.Request) models.PlanResult
	SearchStops(ctx context.Context, q string) (*models.StopSearchResult, *models.PlanError)
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Handlers serves the HTTP endpoints
type Handlers struct {
	planner Planner
	checks  map[string]HealthCheck
}

// NewHandlers creates handlers around p. checks may be nil.
func NewHandlers(p Planner, checks map[string]HealthCheck) *Handlers {
	return &Handlers{planner: p, checks: checks}
}

// RouteSearch handles the /api/routes endpoint
func (h *Handlers) RouteSearch(c *fiber.Ctx) error {
	return h.plan(c, planner.Request{
		FromStop:    c.Query("from"),
		ToStop:      c.Query("to"),
		ArrivalTime: c.Query("arrival_time"),
	})
}

// StopRoutes handles the /routes endpoint, which takes from_stop and to_stop
func (h *Handlers) StopRoutes(c *fiber.Ctx) error {
	return h.plan(c, planner.Request{
		FromStop:    c.Query("from_stop"),
		ToStop:      c.Query("to_stop"),
		ArrivalTime: c.Query("arrival_time"),
	})
}

func (h *Handlers) plan(c *fiber.Ctx, req planner.Request) error {
	result := h.planner.Plan(c.UserContext(), req)
	if result.IsError() {
		return c.Status(planner.HTTPStatus(result.Error.ErrorCode)).JSON(result.Error)
	}
	return c.JSON(result.Success)
}

// StopsSearch handles the /api/stops/search endpoint
func (h *Handlers) StopsSearch(c *fiber.Ctx) error {
	result, planErr := h.planner.SearchStops(c.UserContext(), c.Query("q"))
	if planErr != nil {
		return c.Status(planner.HTTPStatus(planErr.ErrorCode)).JSON(planErr)
	}
	return c.JSON(result)
}

// Health handles the /health endpoint
func (h *Handlers) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	status := "healthy"
	httpStatus := fiber.StatusOK
	checks := fiber.Map{}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = "unhealthy"
			httpStatus = fiber.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"service": ServiceName,
		"checks":  checks,
	})
}

// ErrorHandler renders errors that escaped a handler. Routing errors keep
// their status; anything else, recovered panics included, is an
// INTERNAL_ERROR.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
		})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")

	planErr := planner.Classify(err)
	return c.Status(planner.HTTPStatus(planErr.ErrorCode)).JSON(planErr)
}
