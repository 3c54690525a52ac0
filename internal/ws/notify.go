package ws

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

type GoalsUpdatedEvent struct {
	Type      string `json:"type"`
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Timestamp string `json:"timestamp"`
}

var defaultHub atomic.Pointer[Hub]

func SetDefaultHub(h *Hub) {
	defaultHub.Store(h)
}

// NotifyGoalsUpdated broadcasts a goals_updated event to connected clients.
// A no-op when no hub is installed (tests, one-off runs).
func NotifyGoalsUpdated(date time.Time, created, updated int) {
	h := defaultHub.Load()
	if h == nil {
		return
	}

	evt := GoalsUpdatedEvent{
		Type:      "goals_updated",
		Date:      date.UTC().Format("2006-01-02"),
		Created:   created,
		Updated:   updated,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.Broadcast(b)
}
