package battle

import (
	"context"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/model"
)

// ResumableBattle is the reference handed to a reconnecting client so
// it can rejoin a battle it was disconnected from
type ResumableBattle struct {
	BattleID     model.BattleID
	Role         model.Role
	OpponentName string
	Status       model.BattleStatus
}

func resumableRef(battle *model.Battle, role model.Role) *ResumableBattle {
	return &ResumableBattle{
		BattleID:     battle.ID,
		Role:         role,
		OpponentName: battle.OpponentOf(role).DisplayName,
		Status:       battle.Status,
	}
}

// CheckForActiveBattle returns a resumable reference to the player's
// most recent unfinished battle, or model.ErrNoActiveBattle if there is
// none.
func (c *Controller) CheckForActiveBattle(ctx context.Context, playerID model.PlayerID) (*ResumableBattle, error) {
	battle, err := c.storage.FindActiveBattle(ctx, playerID)
	if err != nil {
		return nil, err
	}

	role, ok := battle.RoleOf(playerID)
	if !ok {
		return nil, model.ErrNotParticipant
	}

	return resumableRef(battle, role), nil
}

// RecoveryWatch tracks the lifecycle of one resumable battle. Updates()
// carries the refreshed reference on every change and nil once the
// battle finishes, after which the channel closes and the watch is
// spent.
type RecoveryWatch struct {
	sub     *bus.Subscription[model.Battle]
	updates chan *ResumableBattle
}

// WatchActiveBattle observes the battle backing a resumable reference.
// The reference is updated in place while the battle stays open and
// cleared as soon as it finishes. Every send is non-blocking so a
// departed consumer cannot strand the watch; a consumer that misses
// the nil clear still sees the channel close.
func (c *Controller) WatchActiveBattle(battleID model.BattleID, playerID model.PlayerID) *RecoveryWatch {
	sub := c.changes.Subscribe(func(ev bus.Event[model.Battle]) bool {
		return ev.New.ID == battleID
	})

	w := &RecoveryWatch{
		sub:     sub,
		updates: make(chan *ResumableBattle, watchBuffer),
	}

	go func() {
		defer close(w.updates)
		defer sub.Close()
		for ev := range sub.Events() {
			battle := ev.New
			role, ok := battle.RoleOf(playerID)
			if !ok {
				continue
			}
			if battle.Status == model.BattleStatusFinished {
				select {
				case w.updates <- nil:
				default:
				}
				return
			}
			select {
			case w.updates <- resumableRef(&battle, role):
			default:
			}
		}
	}()

	return w
}

// Updates returns the reference stream. A nil value means the battle
// finished and the reference should be dropped.
func (w *RecoveryWatch) Updates() <-chan *ResumableBattle {
	return w.updates
}

// Close detaches the watch
func (w *RecoveryWatch) Close() {
	w.sub.Close()
}

// ClearActiveBattle abandons the session's battle: the battle is marked
// finished with no winner so it stops showing up as resumable.
func (c *Controller) ClearActiveBattle(ctx context.Context, session *Session) error {
	_, err := c.ReportGameEnd(ctx, session.BattleID(), "")
	return err
}
