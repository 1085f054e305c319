package battle

import (
	"context"

	"github.com/towerclash/battlesync/internal/model"
)

// SyncGameState replaces the battle's synced snapshot with the host's
// latest simulation summary. Only the host may sync; the guest observes
// snapshots through its feed, last write wins, no history kept.
//
// The host's delivery watermark rides along with the snapshot so a
// rejoining host resumes where it left off.
func (c *Controller) SyncGameState(ctx context.Context, session *Session, snapshot model.SyncedStateSnapshot) error {
	if session.Role() != model.RoleHost {
		return model.ErrNotHost
	}

	watermark := session.Watermark()
	_, err := c.updateBattle(ctx, session.BattleID(), func(b *model.Battle) error {
		b.GameState.SyncedState = cloneSnapshot(&snapshot)
		if watermark > b.GameState.LastProcessedWatermark {
			b.GameState.LastProcessedWatermark = watermark
		}
		return nil
	})
	return err
}
