package matchmaking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/dependencies/mocks"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/storage/memory"
	"github.com/towerclash/battlesync/internal/testutil"
)

// stubLookup resolves tags from a fixed player set
type stubLookup struct {
	players map[string]*model.Player
}

func (l *stubLookup) LookupByTag(ctx context.Context, tag string) (*model.Player, error) {
	player, ok := l.players[tag]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	lookup  *stubLookup
	changes *bus.Bus[model.BattleRequest]
	service *Service
	ctx     context.Context

	alice model.Player
	bob   model.Player
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.changes = bus.New[model.BattleRequest]("requests", testutil.NopLogger())

	s.alice = model.Player{ID: "p_alice", Tag: "ALICE123", DisplayName: "Alice"}
	s.bob = model.Player{ID: "p_bob", Tag: "BOB45678", DisplayName: "Bob"}
	s.lookup = &stubLookup{players: map[string]*model.Player{
		s.alice.Tag: &s.alice,
		s.bob.Tag:   &s.bob,
	}}

	s.service = New(s.storage, s.lookup, s.clock, s.changes, DefaultConfig())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TearDownTest() {
	s.changes.Close()
}

func (s *ServiceSuite) sendAliceToBob() *model.BattleRequest {
	req, err := s.service.SendRequest(s.ctx, s.alice, s.bob.Tag)
	s.Require().NoError(err)
	return req
}

// SendRequest tests

func (s *ServiceSuite) TestSendRequestCreatesPendingRequest() {
	req := s.sendAliceToBob()

	s.NotEmpty(req.ID)
	s.Equal(s.alice.ID, req.FromID)
	s.Equal(s.bob.ID, req.ToID)
	s.Equal("Alice", req.FromName)
	s.Equal("Bob", req.ToName)
	s.Equal(model.RequestStatusPending, req.Status)
	s.Equal(s.clock.Now().Add(2*time.Minute), req.ExpiresAt)
}

func (s *ServiceSuite) TestSendRequestFailsForUnknownTag() {
	_, err := s.service.SendRequest(s.ctx, s.alice, "NOBODY99")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestSendRequestFailsForOwnTag() {
	_, err := s.service.SendRequest(s.ctx, s.alice, s.alice.Tag)
	s.ErrorIs(err, ErrSelfRequest)
}

// AcceptRequest tests

func (s *ServiceSuite) TestAcceptRequestSucceeds() {
	req := s.sendAliceToBob()

	accepted, err := s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(model.RequestStatusAccepted, accepted.Status)
}

func (s *ServiceSuite) TestAcceptRequestFailsForWrongTarget() {
	req := s.sendAliceToBob()

	// The sender cannot accept their own request
	_, err := s.service.AcceptRequest(s.ctx, req.ID, s.alice.ID)
	s.ErrorIs(err, model.ErrRequestNotFound)
}

func (s *ServiceSuite) TestAcceptRequestFailsWhenExpired() {
	req := s.sendAliceToBob()

	s.clock.Advance(2*time.Minute + time.Second)

	_, err := s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID)
	s.ErrorIs(err, model.ErrRequestClosed)
}

func (s *ServiceSuite) TestAcceptRequestFailsWhenAlreadyAccepted() {
	req := s.sendAliceToBob()

	_, err := s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID)
	s.Require().NoError(err)

	_, err = s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID)
	s.ErrorIs(err, model.ErrRequestClosed)
}

func (s *ServiceSuite) TestAcceptRequestExactlyOnceUnderConcurrency() {
	req := s.sendAliceToBob()

	const attempts = 8
	var wg sync.WaitGroup
	successes := make(chan *model.BattleRequest, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if accepted, err := s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID); err == nil {
				successes <- accepted
			}
		}()
	}
	wg.Wait()
	close(successes)

	var count int
	for range successes {
		count++
	}
	s.Equal(1, count)
}

// DeclineRequest tests

func (s *ServiceSuite) TestDeclineRequestIsTerminal() {
	req := s.sendAliceToBob()

	declined, err := s.service.DeclineRequest(s.ctx, req.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(model.RequestStatusDeclined, declined.Status)

	_, err = s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID)
	s.ErrorIs(err, model.ErrRequestClosed)
}

// CancelRequest tests

func (s *ServiceSuite) TestCancelRequestDeletesPendingRequest() {
	req := s.sendAliceToBob()

	err := s.service.CancelRequest(s.ctx, req.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.storage.GetRequest(s.ctx, req.ID)
	s.ErrorIs(err, model.ErrRequestNotFound)
}

func (s *ServiceSuite) TestCancelRequestFailsForNonRequester() {
	req := s.sendAliceToBob()

	err := s.service.CancelRequest(s.ctx, req.ID, s.bob.ID)
	s.ErrorIs(err, model.ErrRequestNotFound)
}

func (s *ServiceSuite) TestCancelRequestFailsAfterAccept() {
	req := s.sendAliceToBob()
	_, err := s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID)
	s.Require().NoError(err)

	err = s.service.CancelRequest(s.ctx, req.ID, s.alice.ID)
	s.ErrorIs(err, model.ErrRequestClosed)
}

// FetchRequests tests

func (s *ServiceSuite) TestFetchRequestsSplitsIncomingAndOutgoing() {
	sent := s.sendAliceToBob()

	received, err := s.service.SendRequest(s.ctx, s.bob, s.alice.Tag)
	s.Require().NoError(err)

	incoming, outgoing, err := s.service.FetchRequests(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Require().Len(incoming, 1)
	s.Require().Len(outgoing, 1)
	s.Equal(received.ID, incoming[0].ID)
	s.Equal(sent.ID, outgoing[0].ID)
}

func (s *ServiceSuite) TestFetchRequestsExcludesExpired() {
	s.sendAliceToBob()

	s.clock.Advance(2*time.Minute + time.Second)

	incoming, outgoing, err := s.service.FetchRequests(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Empty(incoming)
	s.Empty(outgoing)
}

func (s *ServiceSuite) TestFetchRequestsExcludesTerminal() {
	req := s.sendAliceToBob()
	_, err := s.service.DeclineRequest(s.ctx, req.ID, s.bob.ID)
	s.Require().NoError(err)

	incoming, _, err := s.service.FetchRequests(s.ctx, s.bob.ID)
	s.Require().NoError(err)
	s.Empty(incoming)
}

// Watch tests

func (s *ServiceSuite) recvChange(w *Watch) bus.Event[model.BattleRequest] {
	select {
	case ev, ok := <-w.Changes():
		s.Require().True(ok, "watch closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for change event")
	}
	return bus.Event[model.BattleRequest]{}
}

func (s *ServiceSuite) TestWatchSurfacesChangesForBothSides() {
	aliceWatch := s.service.Watch(s.alice.ID)
	defer aliceWatch.Close()
	bobWatch := s.service.Watch(s.bob.ID)
	defer bobWatch.Close()

	req := s.sendAliceToBob()

	s.Equal(req.ID, s.recvChange(aliceWatch).New.ID)
	s.Equal(req.ID, s.recvChange(bobWatch).New.ID)
}

func (s *ServiceSuite) TestWatchIgnoresUnrelatedRequests() {
	carol := model.Player{ID: "p_carol", Tag: "CAROL999", DisplayName: "Carol"}
	s.lookup.players[carol.Tag] = &carol

	carolWatch := s.service.Watch(carol.ID)
	defer carolWatch.Close()

	s.sendAliceToBob()

	select {
	case ev := <-carolWatch.Changes():
		s.FailNow("unexpected event", "%+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *ServiceSuite) TestWatchFiresMatchFoundOnAccept() {
	// The sender's watch must fire even though the target transitioned it
	aliceWatch := s.service.Watch(s.alice.ID)
	defer aliceWatch.Close()

	req := s.sendAliceToBob()
	_, err := s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID)
	s.Require().NoError(err)

	select {
	case accepted := <-aliceWatch.MatchFound():
		s.Equal(req.ID, accepted.ID)
		s.Equal(model.RequestStatusAccepted, accepted.Status)
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for match-found")
	}
}

func (s *ServiceSuite) TestWatchCloseReleasesMatchFoundWaiters() {
	aliceWatch := s.service.Watch(s.alice.ID)

	aliceWatch.Close()

	// A consumer blocked solely on MatchFound must be released
	select {
	case _, open := <-aliceWatch.MatchFound():
		s.False(open)
	case <-time.After(time.Second):
		s.FailNow("match-found channel not released on close")
	}
}

func (s *ServiceSuite) TestWatchMatchStaysReadableAfterClose() {
	aliceWatch := s.service.Watch(s.alice.ID)

	req := s.sendAliceToBob()
	_, err := s.service.AcceptRequest(s.ctx, req.ID, s.bob.ID)
	s.Require().NoError(err)

	// Let the accept reach the watch before closing it
	s.recvChange(aliceWatch)
	s.recvChange(aliceWatch)
	aliceWatch.Close()

	select {
	case accepted := <-aliceWatch.MatchFound():
		s.Equal(req.ID, accepted.ID)
	case <-time.After(time.Second):
		s.FailNow("buffered match lost on close")
	}
}

func (s *ServiceSuite) TestWatchDoesNotFireMatchFoundOnDecline() {
	aliceWatch := s.service.Watch(s.alice.ID)
	defer aliceWatch.Close()

	req := s.sendAliceToBob()
	_, err := s.service.DeclineRequest(s.ctx, req.ID, s.bob.ID)
	s.Require().NoError(err)

	// Drain the two change events first so ordering is settled
	s.recvChange(aliceWatch)
	s.recvChange(aliceWatch)

	select {
	case <-aliceWatch.MatchFound():
		s.FailNow("match-found fired for a declined request")
	default:
	}
}
