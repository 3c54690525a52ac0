package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v3"
)

// AdminTokenHeader carries the operator token for the admin route group.
const AdminTokenHeader = "X-Admin-Token"

// AdminMiddleware gates operator-only routes. It runs on top of the
// regular bearer auth, so callers must present both a valid access
// token and the configured operator token.
type AdminMiddleware struct {
	token string
}

func NewAdminMiddleware(token string) *AdminMiddleware {
	return &AdminMiddleware{token: token}
}

func (m *AdminMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		presented := c.Get(AdminTokenHeader)
		if m.token == "" || presented == "" {
			return NewAppError(fiber.StatusForbidden, "Admin access required", nil, nil)
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(m.token)) != 1 {
			return NewAppError(fiber.StatusForbidden, "Admin access required", nil, nil)
		}

		return c.Next()
	}
}
