package app

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"nutrisync/internal/delivery/http/handler"
	"nutrisync/internal/delivery/http/middleware"
	"nutrisync/internal/delivery/http/routes"
	"nutrisync/internal/ws"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New wires the HTTP surface on top of an already-built container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName: c.Config.App.AppName,
	})

	f.Use(middleware.NewErrorMiddleware(c.Log).Middleware())
	f.Use(middleware.NewAccessLogMiddleware(c.Log).Middleware())

	reg := &routes.Registry{
		Health:  handler.NewHealthHandler(c.DB, c.Cache),
		Auth:    handler.NewAuthHandler(c.AuthUC),
		Profile: handler.NewProfileHandler(c.ProfileUC),
		Goal:    handler.NewGoalHandler(c.GoalUC, c.RecUC),
		Admin:   handler.NewAdminHandler(c.Sched, c.Monitor),
		WS:      ws.NewHandler(c.WSHub, c.Log),
		AuthMW:  middleware.NewAuthMiddleware(c.JWT),
		AdminMW: middleware.NewAdminMiddleware(c.Config.App.AdminToken),
	}
	reg.Register(f)

	return &App{Fiber: f, Container: c}
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
