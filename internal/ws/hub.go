package ws

import (
	"sync"

	"nutrisync/internal/logger"
)

// Hub fans broadcast messages out to every connected websocket client.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("ws client connected", "total_clients", total)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("ws client disconnected", "total_clients", total)

		case message := <-h.broadcast:
			h.mutex.RLock()
			snapshot := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				snapshot = append(snapshot, c)
			}
			h.mutex.RUnlock()

			for _, client := range snapshot {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the hub.
					h.Unregister(client)
				}
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	h.unregister <- client
}

func (h *Hub) Broadcast(message []byte) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("ws broadcast dropped", "reason", "buffer_full")
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
