package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"nutrisync/internal/delivery/http/dto"
	"nutrisync/internal/delivery/http/middleware"
	"nutrisync/internal/maintenance"
	"nutrisync/internal/pipeline"
	"nutrisync/internal/pkg/response"
	"nutrisync/internal/scheduler"
	"nutrisync/internal/usecase"
)

// AdminHandler exposes the batch and maintenance controls. Routes are mounted
// behind both the bearer auth middleware and the operator-token check, so a
// regular signup cannot trigger regeneration or cleanup.
type AdminHandler struct {
	sched   *scheduler.Scheduler
	monitor *maintenance.Monitor
}

func NewAdminHandler(sched *scheduler.Scheduler, monitor *maintenance.Monitor) *AdminHandler {
	return &AdminHandler{sched: sched, monitor: monitor}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/goals/generate", h.GenerateAll)
	r.Post("/recommendations/generate", h.GenerateRecommendations)
	r.Get("/jobs/status", h.JobStatus)
	r.Get("/maintenance/health", h.MaintenanceHealth)
	r.Post("/maintenance/cleanup", h.Cleanup)
	r.Post("/maintenance/recover", h.Recover)
}

// GenerateAll triggers the population-wide goal run through the scheduler, so
// it shares the single-flight and spacing guards with the timed runs.
func (h *AdminHandler) GenerateAll(c fiber.Ctx) error {
	out, err := h.sched.RunNow(c.Context(), scheduler.JobDailyGoals)
	if err != nil {
		return mapSchedulerError(err)
	}

	res, ok := out.(pipeline.RunResult)
	if !ok {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewBatchRunResponse(res))
}

func (h *AdminHandler) GenerateRecommendations(c fiber.Ctx) error {
	out, err := h.sched.RunNow(c.Context(), scheduler.JobRecommendations)
	if err != nil {
		return mapSchedulerError(err)
	}

	res, ok := out.(usecase.RecommendationBatchResult)
	if !ok {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *AdminHandler) JobStatus(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.sched.Snapshot())
}

func (h *AdminHandler) MaintenanceHealth(c fiber.Ctx) error {
	health, err := h.monitor.CheckHealth(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, health)
}

func (h *AdminHandler) Cleanup(c fiber.Ctx) error {
	deleted, err := h.monitor.Cleanup(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{"deleted_rows": deleted})
}

func (h *AdminHandler) Recover(c fiber.Ctx) error {
	recovered := h.monitor.EmergencyRecovery(c.Context())
	if !recovered {
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Recovery failed", map[string]any{"recovered": false}, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{"recovered": true})
}

func mapSchedulerError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrJobRunning):
		return middleware.NewAppError(fiber.StatusConflict, "Job already running", nil, err)
	case errors.Is(err, scheduler.ErrRanRecently):
		return middleware.NewAppError(fiber.StatusTooManyRequests, "Job ran recently", nil, err)
	case errors.Is(err, scheduler.ErrUnknownJob):
		return middleware.NewAppError(fiber.StatusNotFound, "Unknown job", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
