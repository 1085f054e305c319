package battle

import (
	"time"

	"github.com/towerclash/battlesync/internal/model"
)

func (s *ControllerSuite) TestSyncGameStateStoresSnapshot() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	snapshot := model.SyncedStateSnapshot{
		TimeRemainingSec: 120,
		HostElixir:       6.5,
		GuestElixir:      3.0,
		HostTowers:       []int{1400, 1400, 2600},
		GuestTowers:      []int{1400, 900, 2600},
		Outcome:          model.OutcomeInProgress,
	}
	s.Require().NoError(s.controller.SyncGameState(s.ctx, host, snapshot))

	stored, err := s.storage.GetBattle(s.ctx, battle.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.GameState.SyncedState)
	s.Equal(120, stored.GameState.SyncedState.TimeRemainingSec)
	s.Equal([]int{1400, 900, 2600}, stored.GameState.SyncedState.GuestTowers)
}

func (s *ControllerSuite) TestSyncGameStateRejectsGuest() {
	battle := s.createBattle()
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	err = s.controller.SyncGameState(s.ctx, guest, model.SyncedStateSnapshot{})
	s.ErrorIs(err, model.ErrNotHost)
}

func (s *ControllerSuite) TestSyncGameStateLastWriteWins() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.controller.SyncGameState(s.ctx, host, model.SyncedStateSnapshot{TimeRemainingSec: 120}))
	s.Require().NoError(s.controller.SyncGameState(s.ctx, host, model.SyncedStateSnapshot{TimeRemainingSec: 90}))

	stored, err := s.storage.GetBattle(s.ctx, battle.ID)
	s.Require().NoError(err)
	s.Equal(90, stored.GameState.SyncedState.TimeRemainingSec)
}

func (s *ControllerSuite) TestGuestObservesSnapshotThroughFeed() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	feed := s.controller.StartFeed(guest)
	defer feed.Close()

	s.Nil(guest.LatestSnapshot())

	snapshot := model.SyncedStateSnapshot{TimeRemainingSec: 45, Outcome: model.OutcomeInProgress}
	s.Require().NoError(s.controller.SyncGameState(s.ctx, host, snapshot))

	s.Eventually(func() bool {
		latest := guest.LatestSnapshot()
		return latest != nil && latest.TimeRemainingSec == 45
	}, time.Second, 5*time.Millisecond)
}

func (s *ControllerSuite) TestHostWatermarkSurvivesRejoin() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	feed := s.controller.StartFeed(host)
	defer feed.Close()

	_, err = s.controller.SendPlacement(s.ctx, guest, "archer", 0, model.Position{})
	s.Require().NoError(err)
	placedAt := s.clock.Now().UnixMilli()

	s.Eventually(func() bool {
		return host.Watermark() == placedAt
	}, time.Second, 5*time.Millisecond)

	// Syncing persists the host's progress with the document
	s.Require().NoError(s.controller.SyncGameState(s.ctx, host, model.SyncedStateSnapshot{}))

	rejoined, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(placedAt, rejoined.Watermark())
	s.Zero(rejoined.PendingPlacements())
}

func (s *ControllerSuite) TestGuestRejoinReplaysFromStart() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.controller.SendPlacement(s.ctx, host, "knight", 0, model.Position{})
	s.Require().NoError(err)
	s.Require().NoError(s.controller.SyncGameState(s.ctx, host, model.SyncedStateSnapshot{}))

	// Guest delivery is at-least-once: a fresh join sees the full log again
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(1, guest.PendingPlacements())
}
