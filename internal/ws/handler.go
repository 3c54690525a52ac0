package ws

import (
	"net/http"

	"nutrisync/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub *Hub
	log logger.Logger
}

func NewHandler(hub *Hub, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{hub: hub, log: log}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleGoalsWS upgrades the connection and attaches it to the hub so the
// client receives goal-materialization events.
func (h *Handler) HandleGoalsWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("ws upgrade failed", "error", err)
			return
		}

		client := NewClient(h.hub, conn)
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}
