package routes

import (
	"github.com/gofiber/fiber/v3"

	"nutrisync/internal/delivery/http/handler"
	"nutrisync/internal/delivery/http/middleware"
	"nutrisync/internal/ws"
)

type Registry struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Goal    *handler.GoalHandler
	Admin   *handler.AdminHandler
	WS      *ws.Handler

	AuthMW  *middleware.AuthMiddleware
	AdminMW *middleware.AdminMiddleware
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.Health.RegisterRoutes(app)
	app.Get("/ws/goals", r.WS.HandleGoalsWS)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	r.Auth.RegisterRoutes(v1.Group("/auth"))

	authed := v1.Group("", r.AuthMW.Middleware())
	r.Profile.RegisterRoutes(authed.Group("/me"))
	r.Goal.RegisterRoutes(authed)
	r.Admin.RegisterRoutes(authed.Group("/admin", r.AdminMW.Middleware()))
}
