package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"nutrisync/internal/logger"
)

type AccessLogMiddleware struct {
	log logger.Logger
}

func NewAccessLogMiddleware(log logger.Logger) *AccessLogMiddleware {
	if log == nil {
		log = logger.NewNop()
	}
	return &AccessLogMiddleware{log: log}
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
			c.Set("X-Request-ID", rid)
		}

		err := c.Next()

		m.log.Info("http access",
			"rid", rid,
			"ip", c.IP(),
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
			"resp_bytes", c.Response().Header.ContentLength(),
		)

		return err
	}
}
