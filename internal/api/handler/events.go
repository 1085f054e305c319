package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/towerclash/battlesync/internal/api/middleware"
	"github.com/towerclash/battlesync/internal/api/response"
	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/services/presence"
)

const (
	// Time between keepalive pings
	pingPeriod = 15 * time.Second
)

// EventsHandler streams change events to a connected client over SSE.
// The stream carries presence changes for other players plus request
// and battle changes involving the caller. While the stream is open the
// caller's presence is kept alive by a heartbeat watcher; closing the
// stream flags them offline.
type EventsHandler struct {
	presenceService *presence.Service
	presenceChanges *bus.Bus[model.PresenceRecord]
	requestChanges  *bus.Bus[model.BattleRequest]
	battleChanges   *bus.Bus[model.Battle]
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(
	presenceService *presence.Service,
	presenceChanges *bus.Bus[model.PresenceRecord],
	requestChanges *bus.Bus[model.BattleRequest],
	battleChanges *bus.Bus[model.Battle],
) *EventsHandler {
	return &EventsHandler{
		presenceService: presenceService,
		presenceChanges: presenceChanges,
		requestChanges:  requestChanges,
		battleChanges:   battleChanges,
	}
}

type presenceEvent struct {
	Kind   string                `json:"kind"`
	Player response.OnlinePlayer `json:"player"`
}

type requestEvent struct {
	Kind    string                 `json:"kind"`
	Request response.BattleRequest `json:"request"`
}

type battleEvent struct {
	Kind   string          `json:"kind"`
	Battle response.Battle `json:"battle"`
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	viewer := player.ID

	presenceSub := h.presenceChanges.Subscribe(func(ev bus.Event[model.PresenceRecord]) bool {
		return ev.New.PlayerID != viewer
	})
	defer presenceSub.Close()

	requestSub := h.requestChanges.Subscribe(func(ev bus.Event[model.BattleRequest]) bool {
		return ev.New.FromID == viewer || ev.New.ToID == viewer
	})
	defer requestSub.Close()

	battleSub := h.battleChanges.Subscribe(func(ev bus.Event[model.Battle]) bool {
		return ev.New.HasParticipant(viewer)
	})
	defer battleSub.Close()

	// An open stream counts as a foreground surface
	watcher := h.presenceService.StartWatching(viewer)
	defer watcher.Close()

	// Send initial connection event
	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-presenceSub.Events():
			if !ok {
				return
			}
			payload := presenceEvent{
				Kind:   string(ev.Kind),
				Player: response.OnlinePlayerFromModel(ev.New.Public()),
			}
			if !writeSSEEvent(w, flusher, "presence", payload) {
				return
			}

		case ev, ok := <-requestSub.Events():
			if !ok {
				return
			}
			payload := requestEvent{
				Kind:    string(ev.Kind),
				Request: response.BattleRequestFromModel(&ev.New, viewer),
			}
			if !writeSSEEvent(w, flusher, "request", payload) {
				return
			}

		case ev, ok := <-battleSub.Events():
			if !ok {
				return
			}
			payload := battleEvent{
				Kind:   string(ev.Kind),
				Battle: response.BattleFromModel(&ev.New),
			}
			if !writeSSEEvent(w, flusher, "battle", payload) {
				return
			}

		case <-ticker.C:
			// Keepalive comment
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

// writeSSEEvent writes a named SSE event with a JSON payload. Returns
// false when the connection is no longer writable.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventName string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return true
	}
	if _, err := w.Write(formatSSEMessage(eventName, string(data))); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

// formatSSEMessage formats an SSE message with event name and data.
// Multi-line data is properly formatted with "data: " prefix on each line.
func formatSSEMessage(eventName, data string) []byte {
	msg := "event: " + eventName + "\n"
	for _, line := range strings.Split(data, "\n") {
		msg += "data: " + line + "\n"
	}
	msg += "\n"
	return []byte(msg)
}
