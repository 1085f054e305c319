package handler

import (
	"encoding/json"
	"net/http"

	"github.com/towerclash/battlesync/internal/api/middleware"
	"github.com/towerclash/battlesync/internal/api/request"
	"github.com/towerclash/battlesync/internal/api/response"
	"github.com/towerclash/battlesync/internal/services/presence"
)

// PresenceHandler handles presence endpoints
type PresenceHandler struct {
	presenceService *presence.Service
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(presenceService *presence.Service) *PresenceHandler {
	return &PresenceHandler{
		presenceService: presenceService,
	}
}

// Update handles PUT /api/v1/presence
// A heartbeat: refreshes the caller's presence record. Presence writes
// are best-effort, so this always succeeds for an authenticated caller.
func (h *PresenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	req := request.UpdatePresenceRequest{Online: true}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, NewInvalidRequestError("invalid request body"))
			return
		}
	}

	h.presenceService.UpdatePresence(r.Context(), player.ID, req.Online)
	response.NoContent(w)
}

// GoOffline handles DELETE /api/v1/presence
func (h *PresenceHandler) GoOffline(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	h.presenceService.GoOffline(r.Context(), player.ID)
	response.NoContent(w)
}

// ListOnline handles GET /api/v1/presence/online
func (h *PresenceHandler) ListOnline(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	players, err := h.presenceService.FetchOnlinePlayers(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.OnlinePlayersFromModel(players))
}
