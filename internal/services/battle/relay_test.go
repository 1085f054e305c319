package battle

import (
	"sync"
	"time"

	"github.com/towerclash/battlesync/internal/model"
)

// SendPlacement tests

func (s *ControllerSuite) TestSendPlacementAppendsTaggedEvent() {
	battle := s.createBattle()
	session, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	event, err := s.controller.SendPlacement(s.ctx, session, "knight", 2, model.Position{X: 8, Y: 14})
	s.Require().NoError(err)
	s.Equal(model.RoleHost, event.Role)
	s.Equal(s.clock.Now().UnixMilli(), event.Timestamp)

	stored, err := s.storage.GetBattle(s.ctx, battle.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.GameState.Placements, 1)
	s.Equal("knight", stored.GameState.Placements[0].CardID)
	s.Equal(model.Position{X: 8, Y: 14}, stored.GameState.Placements[0].Position)
}

func (s *ControllerSuite) TestSendPlacementFailsOnFinishedBattle() {
	battle := s.createBattle()
	session, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.controller.ReportGameEnd(s.ctx, battle.ID, "")
	s.Require().NoError(err)

	_, err = s.controller.SendPlacement(s.ctx, session, "knight", 0, model.Position{})
	s.ErrorIs(err, model.ErrBattleFinished)
}

func (s *ControllerSuite) TestConcurrentPlacementsFromBothRolesAreRetained() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	const perSide = 5
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			_, err := s.controller.SendPlacement(s.ctx, host, "knight", i, model.Position{X: i})
			s.NoError(err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			_, err := s.controller.SendPlacement(s.ctx, guest, "archer", i, model.Position{X: i})
			s.NoError(err)
		}
	}()
	wg.Wait()

	stored, err := s.storage.GetBattle(s.ctx, battle.ID)
	s.Require().NoError(err)
	s.Len(stored.GameState.Placements, 2*perSide)
}

// Feed tests

func (s *ControllerSuite) TestFeedDeliversOpponentPlacementsInOrder() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	feed := s.controller.StartFeed(guest)
	defer feed.Close()

	_, err = s.controller.SendPlacement(s.ctx, host, "knight", 0, model.Position{})
	s.Require().NoError(err)
	s.clock.Advance(time.Second)
	_, err = s.controller.SendPlacement(s.ctx, host, "fireball", 1, model.Position{})
	s.Require().NoError(err)

	s.Eventually(func() bool {
		return guest.PendingPlacements() == 2
	}, time.Second, 5*time.Millisecond)

	first, ok := guest.ConsumePlacement()
	s.Require().True(ok)
	s.Equal("knight", first.CardID)
	second, ok := guest.ConsumePlacement()
	s.Require().True(ok)
	s.Equal("fireball", second.CardID)
	s.True(second.Timestamp > first.Timestamp)
}

func (s *ControllerSuite) TestFeedDoesNotEchoOwnPlacements() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	feed := s.controller.StartFeed(host)
	defer feed.Close()

	_, err = s.controller.SendPlacement(s.ctx, host, "knight", 0, model.Position{})
	s.Require().NoError(err)

	// Give the feed a moment to process the change
	time.Sleep(50 * time.Millisecond)
	s.Zero(host.PendingPlacements())
}

func (s *ControllerSuite) TestFeedDeduplicatesReplayedPlacements() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	feed := s.controller.StartFeed(guest)
	defer feed.Close()

	_, err = s.controller.SendPlacement(s.ctx, host, "knight", 0, model.Position{})
	s.Require().NoError(err)

	s.Eventually(func() bool {
		return guest.PendingPlacements() == 1
	}, time.Second, 5*time.Millisecond)

	// An unrelated document change republishes the full placement log;
	// the already-seen placement must not be queued again
	err = s.controller.SyncGameState(s.ctx, host, model.SyncedStateSnapshot{Outcome: model.OutcomeInProgress})
	s.Require().NoError(err)

	s.Eventually(func() bool {
		return guest.LatestSnapshot() != nil
	}, time.Second, 5*time.Millisecond)
	s.Equal(1, guest.PendingPlacements())
}

func (s *ControllerSuite) TestWatermarkAdvancesMonotonically() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	feed := s.controller.StartFeed(guest)
	defer feed.Close()

	_, err = s.controller.SendPlacement(s.ctx, host, "knight", 0, model.Position{})
	s.Require().NoError(err)
	first := s.clock.Now().UnixMilli()

	s.Eventually(func() bool {
		return guest.Watermark() == first
	}, time.Second, 5*time.Millisecond)

	s.clock.Advance(time.Second)
	_, err = s.controller.SendPlacement(s.ctx, host, "fireball", 1, model.Position{})
	s.Require().NoError(err)
	second := s.clock.Now().UnixMilli()

	s.Eventually(func() bool {
		return guest.Watermark() == second
	}, time.Second, 5*time.Millisecond)
	s.True(second > first)
}

func (s *ControllerSuite) TestJoinReplaysExistingOpponentPlacements() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.controller.SendPlacement(s.ctx, host, "knight", 0, model.Position{})
	s.Require().NoError(err)
	s.clock.Advance(time.Second)
	_, err = s.controller.SendPlacement(s.ctx, host, "fireball", 1, model.Position{})
	s.Require().NoError(err)

	// The guest joins late and must see everything the host placed
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(2, guest.PendingPlacements())
}

func (s *ControllerSuite) TestNextPlacementPeeksWithoutConsuming() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.controller.SendPlacement(s.ctx, host, "knight", 0, model.Position{})
	s.Require().NoError(err)

	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	peeked, ok := guest.NextPlacement()
	s.Require().True(ok)
	s.Equal(1, guest.PendingPlacements())

	consumed, ok := guest.ConsumePlacement()
	s.Require().True(ok)
	s.Equal(peeked, consumed)
	s.Zero(guest.PendingPlacements())

	_, ok = guest.NextPlacement()
	s.False(ok)
}

func (s *ControllerSuite) TestFeedUpdatesSessionStatus() {
	battle := s.createBattle()
	guest, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(model.BattleStatusActive, guest.Status())

	feed := s.controller.StartFeed(guest)
	defer feed.Close()

	_, err = s.controller.ReportGameEnd(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		return guest.Status() == model.BattleStatusFinished
	}, time.Second, 5*time.Millisecond)
}
