package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/towerclash/battlesync/internal/api/middleware"
	"github.com/towerclash/battlesync/internal/api/request"
	"github.com/towerclash/battlesync/internal/api/response"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/services/matchmaking"
)

// RequestHandler handles battle request endpoints
type RequestHandler struct {
	matchmakingService *matchmaking.Service
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(matchmakingService *matchmaking.Service) *RequestHandler {
	return &RequestHandler{
		matchmakingService: matchmakingService,
	}
}

// Send handles POST /api/v1/requests
func (h *RequestHandler) Send(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.SendBattleRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.TargetTag == "" {
		WriteError(w, NewInvalidRequestError("target_tag is required"))
		return
	}

	created, err := h.matchmakingService.SendRequest(r.Context(), *player, req.TargetTag)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.BattleRequestFromModel(created, player.ID))
}

// List handles GET /api/v1/requests
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	incoming, outgoing, err := h.matchmakingService.FetchRequests(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BattleRequestsFromModel(incoming, outgoing, player.ID))
}

// Accept handles POST /api/v1/requests/{id}/accept
func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.RequestID(mux.Vars(r)["id"])

	accepted, err := h.matchmakingService.AcceptRequest(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BattleRequestFromModel(accepted, player.ID))
}

// Decline handles POST /api/v1/requests/{id}/decline
func (h *RequestHandler) Decline(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.RequestID(mux.Vars(r)["id"])

	declined, err := h.matchmakingService.DeclineRequest(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BattleRequestFromModel(declined, player.ID))
}

// Cancel handles DELETE /api/v1/requests/{id}
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.RequestID(mux.Vars(r)["id"])

	if err := h.matchmakingService.CancelRequest(r.Context(), id, player.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
