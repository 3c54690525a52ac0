package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"nutrisync/internal/database"
	"nutrisync/internal/infrastructure/cache"
	"nutrisync/internal/pkg/response"
)

type HealthHandler struct {
	db    database.DB
	cache *cache.Redis
}

func NewHealthHandler(db database.DB, c *cache.Redis) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	dbStatus := "up"
	status := fiber.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "down"
		status = fiber.StatusServiceUnavailable
	}

	cacheStatus := "up"
	if err := h.cache.Ping(ctx); err != nil {
		// The cache is optional; its state is reported but never fails the
		// health check.
		cacheStatus = "down"
	}

	data := map[string]any{
		"database": dbStatus,
		"cache":    cacheStatus,
	}
	if status != fiber.StatusOK {
		return response.Error(c, status, "degraded", data)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}
