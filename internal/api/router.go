package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/towerclash/battlesync/internal/api/handler"
	"github.com/towerclash/battlesync/internal/api/middleware"
	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/services/auth"
	"github.com/towerclash/battlesync/internal/services/battle"
	"github.com/towerclash/battlesync/internal/services/matchmaking"
	"github.com/towerclash/battlesync/internal/services/presence"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	PresenceService    *presence.Service
	MatchmakingService *matchmaking.Service
	BattleController   *battle.Controller

	PresenceChanges *bus.Bus[model.PresenceRecord]
	RequestChanges  *bus.Bus[model.BattleRequest]
	BattleChanges   *bus.Bus[model.Battle]
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	presenceHandler := handler.NewPresenceHandler(cfg.PresenceService)
	requestHandler := handler.NewRequestHandler(cfg.MatchmakingService)
	battleHandler := handler.NewBattleHandler(cfg.BattleController)
	eventsHandler := handler.NewEventsHandler(cfg.PresenceService, cfg.PresenceChanges, cfg.RequestChanges, cfg.BattleChanges)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/by-tag/{tag}", playerHandler.GetByTag).Methods(http.MethodGet)

	// Presence routes (all require auth)
	presenceRoutes := api.PathPrefix("/presence").Subrouter()
	presenceRoutes.Use(authMiddleware)
	presenceRoutes.HandleFunc("", presenceHandler.Update).Methods(http.MethodPut)
	presenceRoutes.HandleFunc("", presenceHandler.GoOffline).Methods(http.MethodDelete)
	presenceRoutes.HandleFunc("/online", presenceHandler.ListOnline).Methods(http.MethodGet)

	// Battle request routes (all require auth)
	requests := api.PathPrefix("/requests").Subrouter()
	requests.Use(authMiddleware)
	requests.HandleFunc("", requestHandler.Send).Methods(http.MethodPost)
	requests.HandleFunc("", requestHandler.List).Methods(http.MethodGet)
	requests.HandleFunc("/{id}/accept", requestHandler.Accept).Methods(http.MethodPost)
	requests.HandleFunc("/{id}/decline", requestHandler.Decline).Methods(http.MethodPost)
	requests.HandleFunc("/{id}", requestHandler.Cancel).Methods(http.MethodDelete)

	// Battle routes (all require auth). "active" must register before
	// the "{id}" routes so it is not captured as a battle id.
	battles := api.PathPrefix("/battles").Subrouter()
	battles.Use(authMiddleware)
	battles.HandleFunc("", battleHandler.Create).Methods(http.MethodPost)
	battles.HandleFunc("/active", battleHandler.GetActive).Methods(http.MethodGet)
	battles.HandleFunc("/{id}", battleHandler.Get).Methods(http.MethodGet)
	battles.HandleFunc("/{id}/join", battleHandler.Join).Methods(http.MethodPost)
	battles.HandleFunc("/{id}/placements", battleHandler.SendPlacement).Methods(http.MethodPost)
	battles.HandleFunc("/{id}/state", battleHandler.SyncState).Methods(http.MethodPut)
	battles.HandleFunc("/{id}/end", battleHandler.End).Methods(http.MethodPost)
	battles.HandleFunc("/{id}", battleHandler.Leave).Methods(http.MethodDelete)

	// Event stream (requires auth)
	events := api.PathPrefix("/events").Subrouter()
	events.Use(authMiddleware)
	events.HandleFunc("", eventsHandler.Stream).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
