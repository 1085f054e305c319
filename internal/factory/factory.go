package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/dependencies/clock"
	"github.com/towerclash/battlesync/internal/dependencies/random"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/services/auth"
	"github.com/towerclash/battlesync/internal/services/battle"
	"github.com/towerclash/battlesync/internal/services/matchmaking"
	"github.com/towerclash/battlesync/internal/services/presence"
	"github.com/towerclash/battlesync/internal/storage"
	"github.com/towerclash/battlesync/internal/storage/memory"
	redisstorage "github.com/towerclash/battlesync/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Change buses, one per entity type
	PresenceChanges *bus.Bus[model.PresenceRecord]
	RequestChanges  *bus.Bus[model.BattleRequest]
	BattleChanges   *bus.Bus[model.Battle]

	// Services
	AuthService        *auth.Service
	PresenceService    *presence.Service
	MatchmakingService *matchmaking.Service
	BattleController   *battle.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// PresenceConfig holds configuration for the presence service (optional)
	PresenceConfig presence.Config
	// MatchmakingConfig holds configuration for the matchmaking service (optional)
	MatchmakingConfig matchmaking.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	// One change bus per entity type
	presenceChanges := bus.New[model.PresenceRecord]("presence", logger)
	requestChanges := bus.New[model.BattleRequest]("requests", logger)
	battleChanges := bus.New[model.Battle]("battles", logger)

	// Create services
	authService := auth.New(store, clk, rnd, cfg.AuthConfig)
	presenceService := presence.New(store, clk, presenceChanges, logger, cfg.PresenceConfig)
	matchmakingService := matchmaking.New(store, authService, clk, requestChanges, cfg.MatchmakingConfig)
	battleController := battle.NewController(store, clk, battleChanges, logger)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		PresenceChanges:    presenceChanges,
		RequestChanges:     requestChanges,
		BattleChanges:      battleChanges,
		AuthService:        authService,
		PresenceService:    presenceService,
		MatchmakingService: matchmakingService,
		BattleController:   battleController,
	}
}

// Close releases the application's long-lived resources
func (a *App) Close() error {
	a.PresenceChanges.Close()
	a.RequestChanges.Close()
	a.BattleChanges.Close()

	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
