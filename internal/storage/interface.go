package storage

import (
	"context"
	"time"

	"github.com/towerclash/battlesync/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByTag(ctx context.Context, tag string) (*model.Player, error)

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Presence operations (one record per player, upserted)
	SavePresence(ctx context.Context, record *model.PresenceRecord) error
	GetPresence(ctx context.Context, playerID model.PlayerID) (*model.PresenceRecord, error)
	ListPresence(ctx context.Context) ([]*model.PresenceRecord, error)

	// Battle request operations
	SaveRequest(ctx context.Context, req *model.BattleRequest) error
	GetRequest(ctx context.Context, id model.RequestID) (*model.BattleRequest, error)
	// ListRequestsForPlayer returns requests addressed to or from the player
	ListRequestsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.BattleRequest, error)
	// TransitionRequest atomically moves a still-pending, unexpired request
	// addressed to target into a terminal status. At most one concurrent
	// caller succeeds; the rest get ErrRequestClosed.
	TransitionRequest(ctx context.Context, id model.RequestID, target model.PlayerID, to model.RequestStatus, now time.Time) (*model.BattleRequest, error)
	// DeleteRequestIfPending removes a pending request owned by requester
	DeleteRequestIfPending(ctx context.Context, id model.RequestID, requester model.PlayerID) error

	// Battle operations
	CreateBattle(ctx context.Context, battle *model.Battle) error
	GetBattle(ctx context.Context, id model.BattleID) (*model.Battle, error)
	// UpdateBattle writes the battle only if the stored version matches
	// battle.Version, bumping the version on success (reflected in the
	// argument). Returns ErrVersionConflict on a lost race.
	UpdateBattle(ctx context.Context, battle *model.Battle) error
	// FindActiveBattle returns the most recently created battle in which
	// the player participates and whose status is waiting or active.
	FindActiveBattle(ctx context.Context, playerID model.PlayerID) (*model.Battle, error)
}
