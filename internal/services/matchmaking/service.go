package matchmaking

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/dependencies/clock"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/storage"
)

// Errors
var (
	ErrSelfRequest = errors.New("cannot send a battle request to yourself")
)

// PlayerLookup resolves a public player tag to a player record
type PlayerLookup interface {
	LookupByTag(ctx context.Context, tag string) (*model.Player, error)
}

// Config holds configuration for the matchmaking service
type Config struct {
	// RequestExpiry is how long a pending request stays actionable
	RequestExpiry time.Duration
}

// DefaultConfig returns default matchmaking configuration
func DefaultConfig() Config {
	return Config{
		RequestExpiry: 2 * time.Minute,
	}
}

// Service brokers battle requests between players. All state transitions
// are compare-and-transition at the storage layer, so duplicate accepts
// resolve to exactly one winner.
type Service struct {
	storage storage.Storage
	lookup  PlayerLookup
	clock   clock.Clock
	changes *bus.Bus[model.BattleRequest]
	cfg     Config
}

// New creates a new matchmaking Service
func New(
	storage storage.Storage,
	lookup PlayerLookup,
	clock clock.Clock,
	changes *bus.Bus[model.BattleRequest],
	cfg Config,
) *Service {
	if cfg.RequestExpiry == 0 {
		cfg.RequestExpiry = DefaultConfig().RequestExpiry
	}
	return &Service{
		storage: storage,
		lookup:  lookup,
		clock:   clock,
		changes: changes,
		cfg:     cfg,
	}
}

// SendRequest creates a pending battle request addressed to the player
// with the given tag. Fails if the tag resolves to nobody.
func (s *Service) SendRequest(ctx context.Context, from model.Player, targetTag string) (*model.BattleRequest, error) {
	target, err := s.lookup.LookupByTag(ctx, targetTag)
	if err != nil {
		return nil, err
	}
	if target.ID == from.ID {
		return nil, ErrSelfRequest
	}

	now := s.clock.Now()
	req := &model.BattleRequest{
		ID:        model.RequestID(uuid.NewString()),
		FromID:    from.ID,
		ToID:      target.ID,
		FromName:  from.DisplayName,
		ToName:    target.DisplayName,
		Status:    model.RequestStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RequestExpiry),
	}

	if err := s.storage.SaveRequest(ctx, req); err != nil {
		return nil, err
	}

	s.changes.Publish(bus.Event[model.BattleRequest]{Kind: bus.KindInsert, New: *req})
	return req, nil
}

// AcceptRequest transitions a pending request to accepted. Only the
// addressed player may accept, and only while the request is pending
// and unexpired. Under duplicate taps exactly one call succeeds; the
// rest get ErrRequestClosed.
func (s *Service) AcceptRequest(ctx context.Context, id model.RequestID, target model.PlayerID) (*model.BattleRequest, error) {
	return s.transition(ctx, id, target, model.RequestStatusAccepted)
}

// DeclineRequest transitions a pending request to declined
func (s *Service) DeclineRequest(ctx context.Context, id model.RequestID, target model.PlayerID) (*model.BattleRequest, error) {
	return s.transition(ctx, id, target, model.RequestStatusDeclined)
}

// CancelRequest deletes a request the caller sent while it is still
// pending. A request the target has already acted on cannot be
// cancelled.
func (s *Service) CancelRequest(ctx context.Context, id model.RequestID, requester model.PlayerID) error {
	req, err := s.storage.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.FromID != requester {
		return model.ErrRequestNotFound
	}

	if err := s.storage.DeleteRequestIfPending(ctx, id, requester); err != nil {
		return err
	}

	s.changes.Publish(bus.Event[model.BattleRequest]{Kind: bus.KindDelete, New: *req, Old: *req})
	return nil
}

// FetchRequests returns the player's actionable requests split into
// incoming (addressed to them) and outgoing (sent by them). Expired and
// terminal requests are filtered out.
func (s *Service) FetchRequests(ctx context.Context, playerID model.PlayerID) (incoming, outgoing []*model.BattleRequest, err error) {
	requests, err := s.storage.ListRequestsForPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	for _, req := range requests {
		if req.IsTerminal() || req.IsExpired(now) {
			continue
		}
		if req.ToID == playerID {
			incoming = append(incoming, req)
		} else {
			outgoing = append(outgoing, req)
		}
	}

	byCreation := func(reqs []*model.BattleRequest) {
		sort.Slice(reqs, func(i, j int) bool {
			return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
		})
	}
	byCreation(incoming)
	byCreation(outgoing)

	return incoming, outgoing, nil
}

func (s *Service) transition(ctx context.Context, id model.RequestID, target model.PlayerID, to model.RequestStatus) (*model.BattleRequest, error) {
	updated, err := s.storage.TransitionRequest(ctx, id, target, to, s.clock.Now())
	if err != nil {
		return nil, err
	}

	old := *updated
	old.Status = model.RequestStatusPending
	s.changes.Publish(bus.Event[model.BattleRequest]{Kind: bus.KindUpdate, New: *updated, Old: old})

	return updated, nil
}
