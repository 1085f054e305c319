package battle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/dependencies/mocks"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/storage/memory"
	"github.com/towerclash/battlesync/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	changes    *bus.Bus[model.Battle]
	controller *Controller
	ctx        context.Context

	alice model.Player
	bob   model.Player
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.changes = bus.New[model.Battle]("battles", testutil.NopLogger())
	s.controller = NewController(s.storage, s.clock, s.changes, testutil.NopLogger())
	s.ctx = context.Background()

	s.alice = model.Player{ID: "p_alice", Tag: "ALICE123", DisplayName: "Alice", BannerID: 2, Level: 9}
	s.bob = model.Player{ID: "p_bob", Tag: "BOB45678", DisplayName: "Bob", BannerID: 3, Level: 11}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &s.alice))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &s.bob))
}

func (s *ControllerSuite) TearDownTest() {
	s.changes.Close()
}

// saveRequest persists a request from alice to bob in the given status
func (s *ControllerSuite) saveRequest(status model.RequestStatus) *model.BattleRequest {
	now := s.clock.Now()
	req := &model.BattleRequest{
		ID:        "req_1",
		FromID:    s.alice.ID,
		ToID:      s.bob.ID,
		FromName:  s.alice.DisplayName,
		ToName:    s.bob.DisplayName,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(2 * time.Minute),
	}
	s.Require().NoError(s.storage.SaveRequest(s.ctx, req))
	return req
}

// createBattle runs the full accepted-request -> battle path
func (s *ControllerSuite) createBattle() *model.Battle {
	req := s.saveRequest(model.RequestStatusAccepted)
	battle, err := s.controller.CreateBattle(s.ctx, s.alice, req.ID)
	s.Require().NoError(err)
	return battle
}

// CreateBattle tests

func (s *ControllerSuite) TestCreateBattleStartsActiveWithChallengerAsHost() {
	battle := s.createBattle()

	s.Equal(model.BattleStatusActive, battle.Status)
	s.Equal(s.alice.ID, battle.Host().ID)
	s.Equal(s.bob.ID, battle.Guest().ID)
	s.Equal(int64(1), battle.Version)
	s.Empty(battle.GameState.Placements)
}

func (s *ControllerSuite) TestCreateBattleCarriesParticipantMetadata() {
	battle := s.createBattle()

	s.Equal("Alice", battle.Host().DisplayName)
	s.Equal(9, battle.Host().Level)
	s.Equal("Bob", battle.Guest().DisplayName)
	s.Equal(3, battle.Guest().BannerID)
}

func (s *ControllerSuite) TestCreateBattleFailsForNonChallenger() {
	req := s.saveRequest(model.RequestStatusAccepted)

	_, err := s.controller.CreateBattle(s.ctx, s.bob, req.ID)
	s.ErrorIs(err, ErrNotChallenger)
}

func (s *ControllerSuite) TestCreateBattleFailsForPendingRequest() {
	req := s.saveRequest(model.RequestStatusPending)

	_, err := s.controller.CreateBattle(s.ctx, s.alice, req.ID)
	s.ErrorIs(err, ErrRequestNotAccepted)
}

func (s *ControllerSuite) TestCreateBattleFailsForUnknownRequest() {
	_, err := s.controller.CreateBattle(s.ctx, s.alice, "nope")
	s.ErrorIs(err, model.ErrRequestNotFound)
}

// JoinBattle tests

func (s *ControllerSuite) TestJoinBattleResolvesRoles() {
	battle := s.createBattle()

	hostSession, err := s.controller.JoinBattle(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(model.RoleHost, hostSession.Role())
	s.Equal("Bob", hostSession.Opponent().DisplayName)

	guestSession, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(model.RoleGuest, guestSession.Role())
	s.Equal("Alice", guestSession.Opponent().DisplayName)
}

func (s *ControllerSuite) TestJoinBattleIsIdempotent() {
	battle := s.createBattle()

	first, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)
	second, err := s.controller.JoinBattle(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)

	s.Equal(first.Role(), second.Role())

	// Joining never mutates the battle
	stored, err := s.storage.GetBattle(s.ctx, battle.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.Version)
}

func (s *ControllerSuite) TestJoinBattleFailsForNonParticipant() {
	battle := s.createBattle()

	_, err := s.controller.JoinBattle(s.ctx, battle.ID, "p_carol")
	s.ErrorIs(err, model.ErrNotParticipant)
}

func (s *ControllerSuite) TestJoinBattleFailsForUnknownBattle() {
	_, err := s.controller.JoinBattle(s.ctx, "nope", s.alice.ID)
	s.ErrorIs(err, model.ErrBattleNotFound)
}

// ReportGameEnd tests

func (s *ControllerSuite) TestReportGameEndRecordsWinner() {
	battle := s.createBattle()

	finished, err := s.controller.ReportGameEnd(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(model.BattleStatusFinished, finished.Status)
	s.Equal(s.alice.ID, finished.WinnerID)
}

func (s *ControllerSuite) TestReportGameEndAllowsNoWinner() {
	battle := s.createBattle()

	finished, err := s.controller.ReportGameEnd(s.ctx, battle.ID, "")
	s.Require().NoError(err)
	s.Equal(model.BattleStatusFinished, finished.Status)
	s.Empty(finished.WinnerID)
}

func (s *ControllerSuite) TestReportGameEndIsIdempotent() {
	battle := s.createBattle()

	_, err := s.controller.ReportGameEnd(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	// The second report is a no-op; the first winner stands
	again, err := s.controller.ReportGameEnd(s.ctx, battle.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(s.alice.ID, again.WinnerID)
}

func (s *ControllerSuite) TestReportGameEndPublishesChange() {
	battle := s.createBattle()
	sub := s.changes.Subscribe(nil)
	defer sub.Close()

	_, err := s.controller.ReportGameEnd(s.ctx, battle.ID, s.alice.ID)
	s.Require().NoError(err)

	select {
	case ev := <-sub.Events():
		s.Equal(bus.KindUpdate, ev.Kind)
		s.Equal(model.BattleStatusFinished, ev.New.Status)
		s.Equal(model.BattleStatusActive, ev.Old.Status)
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for battle change event")
	}
}
