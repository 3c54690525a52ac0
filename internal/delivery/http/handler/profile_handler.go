package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"nutrisync/internal/delivery/http/dto"
	"nutrisync/internal/delivery/http/middleware"
	"nutrisync/internal/domain/user"
	"nutrisync/internal/pkg/response"
	"nutrisync/internal/usecase"
)

type ProfileHandler struct {
	uc usecase.ProfileUsecase
}

type saveProfileRequest struct {
	WeightKg      *float64 `json:"weight_kg"`
	HeightCm      *float64 `json:"height_cm"`
	Age           *int     `json:"age"`
	Sex           *string  `json:"sex"`
	ActivityLevel *string  `json:"activity_level"`
	MainGoal      *string  `json:"main_goal"`
	DietaryStyle  *string  `json:"dietary_style"`
}

func NewProfileHandler(uc usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/profile", h.Get)
	r.Put("/profile", h.Save)
}

func (h *ProfileHandler) Get(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	p, err := h.uc.Get(c.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrProfileNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "Profile not set", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewProfileResponse(p))
}

func (h *ProfileHandler) Save(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req saveProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	p, err := h.uc.Save(c.Context(), userID, usecase.SaveProfileInput{
		WeightKg:      req.WeightKg,
		HeightCm:      req.HeightCm,
		Age:           req.Age,
		Sex:           req.Sex,
		ActivityLevel: req.ActivityLevel,
		MainGoal:      req.MainGoal,
		DietaryStyle:  req.DietaryStyle,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidProfile) {
			return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Invalid profile values", nil, err)
		}
		if errors.Is(err, user.ErrNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewProfileResponse(p))
}
