package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/towerclash/battlesync/internal/api/middleware"
	"github.com/towerclash/battlesync/internal/api/request"
	"github.com/towerclash/battlesync/internal/api/response"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/services/battle"
)

// BattleHandler handles battle session endpoints
type BattleHandler struct {
	battleController *battle.Controller
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(battleController *battle.Controller) *BattleHandler {
	return &BattleHandler{
		battleController: battleController,
	}
}

// Create handles POST /api/v1/battles
func (h *BattleHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreateBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.RequestID == "" {
		WriteError(w, NewInvalidRequestError("request_id is required"))
		return
	}

	created, err := h.battleController.CreateBattle(r.Context(), *player, model.RequestID(req.RequestID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.BattleFromModel(created))
}

// Get handles GET /api/v1/battles/{id}
func (h *BattleHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.BattleID(mux.Vars(r)["id"])

	fetched, err := h.battleController.GetBattle(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !fetched.HasParticipant(player.ID) {
		WriteError(w, model.ErrNotParticipant)
		return
	}

	response.JSON(w, http.StatusOK, response.BattleFromModel(fetched))
}

// Join handles POST /api/v1/battles/{id}/join
func (h *BattleHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.BattleID(mux.Vars(r)["id"])

	session, err := h.battleController.JoinBattle(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BattleSessionFromModel(session))
}

// SendPlacement handles POST /api/v1/battles/{id}/placements
func (h *BattleHandler) SendPlacement(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.BattleID(mux.Vars(r)["id"])

	var req request.SendPlacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.CardID == "" {
		WriteError(w, NewInvalidRequestError("card_id is required"))
		return
	}

	session, err := h.battleController.JoinBattle(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	event, err := h.battleController.SendPlacement(r.Context(), session, req.CardID, req.CardIndex, model.Position{X: req.X, Y: req.Y})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlacementFromModel(event))
}

// SyncState handles PUT /api/v1/battles/{id}/state
func (h *BattleHandler) SyncState(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.BattleID(mux.Vars(r)["id"])

	var req request.SyncStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	session, err := h.battleController.JoinBattle(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	snapshot := model.SyncedStateSnapshot{
		TimeRemainingSec: req.TimeRemainingSec,
		HostElixir:       req.HostElixir,
		GuestElixir:      req.GuestElixir,
		HostTowers:       req.HostTowers,
		GuestTowers:      req.GuestTowers,
		Outcome:          model.BattleOutcome(req.Outcome),
	}
	if snapshot.Outcome == "" {
		snapshot.Outcome = model.OutcomeInProgress
	}

	if err := h.battleController.SyncGameState(r.Context(), session, snapshot); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// End handles POST /api/v1/battles/{id}/end
func (h *BattleHandler) End(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.BattleID(mux.Vars(r)["id"])

	var req request.ReportGameEndRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, NewInvalidRequestError("invalid request body"))
			return
		}
	}

	// Only participants may finish a battle
	fetched, err := h.battleController.GetBattle(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !fetched.HasParticipant(player.ID) {
		WriteError(w, model.ErrNotParticipant)
		return
	}

	finished, err := h.battleController.ReportGameEnd(r.Context(), id, model.PlayerID(req.WinnerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BattleFromModel(finished))
}

// Leave handles DELETE /api/v1/battles/{id}
// Abandoning a battle finishes it with no winner.
func (h *BattleHandler) Leave(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.BattleID(mux.Vars(r)["id"])

	session, err := h.battleController.JoinBattle(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.battleController.ClearActiveBattle(r.Context(), session); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// GetActive handles GET /api/v1/battles/active
func (h *BattleHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	ref, err := h.battleController.CheckForActiveBattle(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ResumableBattleFromModel(ref))
}
