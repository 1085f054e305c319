package battle

import (
	"time"

	"github.com/towerclash/battlesync/internal/model"
)

func (s *ControllerSuite) TestCheckForActiveBattleReturnsResumableRef() {
	battle := s.createBattle()

	ref, err := s.controller.CheckForActiveBattle(s.ctx, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(battle.ID, ref.BattleID)
	s.Equal(model.RoleGuest, ref.Role)
	s.Equal("Alice", ref.OpponentName)
	s.Equal(model.BattleStatusActive, ref.Status)
}

func (s *ControllerSuite) TestCheckForActiveBattleFailsWhenNone() {
	_, err := s.controller.CheckForActiveBattle(s.ctx, s.alice.ID)
	s.ErrorIs(err, model.ErrNoActiveBattle)
}

func (s *ControllerSuite) TestFinishedBattleIsNotResumable() {
	battle := s.createBattle()
	_, err := s.controller.ReportGameEnd(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.controller.CheckForActiveBattle(s.ctx, s.alice.ID)
	s.ErrorIs(err, model.ErrNoActiveBattle)
}

func (s *ControllerSuite) TestWatchActiveBattleUpdatesRefWhileOpen() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	watch := s.controller.WatchActiveBattle(battle.ID, s.bob.ID)
	defer watch.Close()

	// Any open-state change refreshes the reference
	_, err = s.controller.SendPlacement(s.ctx, host, "knight", 0, model.Position{})
	s.Require().NoError(err)

	select {
	case ref := <-watch.Updates():
		s.Require().NotNil(ref)
		s.Equal(battle.ID, ref.BattleID)
		s.Equal(model.RoleGuest, ref.Role)
		s.Equal(model.BattleStatusActive, ref.Status)
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for recovery update")
	}
}

func (s *ControllerSuite) TestWatchActiveBattleClearsRefOnFinish() {
	battle := s.createBattle()

	watch := s.controller.WatchActiveBattle(battle.ID, s.bob.ID)
	defer watch.Close()

	_, err := s.controller.ReportGameEnd(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	select {
	case ref := <-watch.Updates():
		s.Nil(ref)
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for clear notification")
	}

	// The watch is spent once the battle finishes
	_, open := <-watch.Updates()
	s.False(open)
}

func (s *ControllerSuite) TestWatchActiveBattleFinishWithFullBufferStillCloses() {
	battle := s.createBattle()
	host, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	watch := s.controller.WatchActiveBattle(battle.ID, s.bob.ID)
	defer watch.Close()

	// Overfill the update buffer while nothing consumes it
	for i := 0; i < watchBuffer+4; i++ {
		_, err := s.controller.SendPlacement(s.ctx, host, "knight", i, model.Position{})
		s.Require().NoError(err)
	}

	_, err = s.controller.ReportGameEnd(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	// The channel must still drain and close; a watch stuck on the
	// clear notification would leave it open forever.
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-watch.Updates():
			if !open {
				return
			}
		case <-deadline:
			s.FailNow("watch did not close after the battle finished")
		}
	}
}

func (s *ControllerSuite) TestClearActiveBattleFinishesAndDropsRef() {
	battle := s.createBattle()
	session, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.controller.ClearActiveBattle(s.ctx, session))

	stored, err := s.storage.GetBattle(s.ctx, battle.ID)
	s.Require().NoError(err)
	s.Equal(model.BattleStatusFinished, stored.Status)
	s.Empty(stored.WinnerID)

	_, err = s.controller.CheckForActiveBattle(s.ctx, s.bob.ID)
	s.ErrorIs(err, model.ErrNoActiveBattle)
}

func (s *ControllerSuite) TestClearActiveBattleIsIdempotent() {
	battle := s.createBattle()
	session, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.controller.ClearActiveBattle(s.ctx, session))
	s.Require().NoError(s.controller.ClearActiveBattle(s.ctx, session))
}
