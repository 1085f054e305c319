package battle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/dependencies/clock"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/storage"
)

// Errors
var (
	ErrNotChallenger      = errors.New("only the challenger may create the battle")
	ErrRequestNotAccepted = errors.New("battle request has not been accepted")
)

// maxUpdateAttempts bounds the optimistic-concurrency retry loop on
// battle document writes
const maxUpdateAttempts = 5

// watchBuffer is the capacity of recovery watch channels
const watchBuffer = 16

// errNoChange aborts an update attempt without treating it as a failure
var errNoChange = errors.New("no change")

// Controller manages battle session lifecycle and the shared game state
// document. All writes to an existing battle go through a versioned
// compare-and-swap, so concurrent writers never silently overwrite each
// other.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	changes *bus.Bus[model.Battle]
	logger  *slog.Logger
}

// NewController creates a new battle Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	changes *bus.Bus[model.Battle],
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		changes: changes,
		logger:  logger,
	}
}

// CreateBattle creates the battle for an accepted request. Only the
// challenger (the request sender) may create it; they become the host.
// The battle starts active since both sides already agreed to play.
func (c *Controller) CreateBattle(ctx context.Context, challenger model.Player, requestID model.RequestID) (*model.Battle, error) {
	req, err := c.storage.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.FromID != challenger.ID {
		return nil, ErrNotChallenger
	}
	if req.Status != model.RequestStatusAccepted {
		return nil, ErrRequestNotAccepted
	}

	opponent, err := c.storage.GetPlayer(ctx, req.ToID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	battle := &model.Battle{
		ID: model.BattleID(uuid.NewString()),
		Participants: [2]model.Participant{
			{
				ID:          challenger.ID,
				DisplayName: challenger.DisplayName,
				BannerID:    challenger.BannerID,
				Level:       challenger.Level,
			},
			{
				ID:          opponent.ID,
				DisplayName: opponent.DisplayName,
				BannerID:    opponent.BannerID,
				Level:       opponent.Level,
			},
		},
		Status:    model.BattleStatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.CreateBattle(ctx, battle); err != nil {
		return nil, err
	}

	c.changes.Publish(bus.Event[model.Battle]{Kind: bus.KindInsert, New: *battle})

	c.logger.Info("battle created",
		slog.String("battle_id", string(battle.ID)),
		slog.String("host_id", string(challenger.ID)),
		slog.String("guest_id", string(opponent.ID)))

	return battle, nil
}

// JoinBattle resolves the caller's role and returns a session view over
// the battle. Joining never mutates the battle, so rejoining after a
// disconnect is safe.
func (c *Controller) JoinBattle(ctx context.Context, battleID model.BattleID, playerID model.PlayerID) (*Session, error) {
	battle, err := c.storage.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}

	role, ok := battle.RoleOf(playerID)
	if !ok {
		return nil, model.ErrNotParticipant
	}

	return newSession(battle, role), nil
}

// GetBattle fetches a battle by id
func (c *Controller) GetBattle(ctx context.Context, battleID model.BattleID) (*model.Battle, error) {
	return c.storage.GetBattle(ctx, battleID)
}

// ReportGameEnd marks the battle finished, optionally recording the
// winner. Finishing an already finished battle is a no-op; the first
// report wins.
func (c *Controller) ReportGameEnd(ctx context.Context, battleID model.BattleID, winnerID model.PlayerID) (*model.Battle, error) {
	return c.updateBattle(ctx, battleID, func(b *model.Battle) error {
		if b.Status == model.BattleStatusFinished {
			return errNoChange
		}
		b.Status = model.BattleStatusFinished
		b.WinnerID = winnerID
		return nil
	})
}

// updateBattle runs a read-mutate-write cycle against the battle
// document under optimistic concurrency. On version conflict the whole
// cycle retries against the fresh document, up to maxUpdateAttempts.
// mutate sees a private copy each attempt; returning errNoChange keeps
// the stored document as-is.
func (c *Controller) updateBattle(ctx context.Context, id model.BattleID, mutate func(*model.Battle) error) (*model.Battle, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		battle, err := c.storage.GetBattle(ctx, id)
		if err != nil {
			return nil, err
		}

		old := battle.Clone()
		if err := mutate(battle); err != nil {
			if errors.Is(err, errNoChange) {
				return battle, nil
			}
			return nil, err
		}
		battle.UpdatedAt = c.clock.Now()

		if err := c.storage.UpdateBattle(ctx, battle); err != nil {
			if errors.Is(err, model.ErrVersionConflict) {
				continue
			}
			return nil, err
		}

		c.changes.Publish(bus.Event[model.Battle]{Kind: bus.KindUpdate, New: *battle, Old: *old})
		return battle, nil
	}

	c.logger.Warn("battle update abandoned after repeated version conflicts",
		slog.String("battle_id", string(id)),
		slog.Int("attempts", maxUpdateAttempts))
	return nil, model.ErrVersionConflict
}
