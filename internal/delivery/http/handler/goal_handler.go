package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"nutrisync/internal/delivery/http/dto"
	"nutrisync/internal/delivery/http/middleware"
	"nutrisync/internal/domain/user"
	"nutrisync/internal/pipeline"
	"nutrisync/internal/pkg/response"
	"nutrisync/internal/usecase"
)

type GoalHandler struct {
	goals usecase.GoalUsecase
	recs  usecase.RecommendationUsecase
}

func NewGoalHandler(goals usecase.GoalUsecase, recs usecase.RecommendationUsecase) *GoalHandler {
	return &GoalHandler{goals: goals, recs: recs}
}

func (h *GoalHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/goals/today", h.Today)
	r.Post("/goals/generate", h.Generate)
	r.Get("/recommendations/latest", h.LatestRecommendation)
	r.Post("/recommendations/generate", h.GenerateRecommendation)
}

func (h *GoalHandler) Today(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	dg, err := h.goals.GetToday(c.Context(), userID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewGoalResponse(dg))
}

// Generate recomputes the caller's goals for today, outside the batch
// schedule.
func (h *GoalHandler) Generate(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	res, err := h.goals.GenerateForUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	if res.Outcome == pipeline.OutcomeError {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, errors.New(res.Message))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *GoalHandler) LatestRecommendation(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	rec, err := h.recs.Latest(c.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrNoRecommendation) {
			return middleware.NewAppError(fiber.StatusNotFound, "No recommendation yet", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRecommendationResponse(rec))
}

func (h *GoalHandler) GenerateRecommendation(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	rec, err := h.recs.GenerateForUser(c.Context(), userID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageOK, dto.NewRecommendationResponse(rec))
}
