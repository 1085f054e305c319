package memory

import (
	"context"
	"sync"
	"time"

	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	tagIndex          map[string]model.PlayerID
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	presence          map[model.PlayerID]*model.PresenceRecord
	requests          map[model.RequestID]*model.BattleRequest
	battles           map[model.BattleID]*model.Battle
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		tagIndex:          make(map[string]model.PlayerID),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		presence:          make(map[model.PlayerID]*model.PresenceRecord),
		requests:          make(map[model.RequestID]*model.BattleRequest),
		battles:           make(map[model.BattleID]*model.Battle),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[p.ID] = &p
	if p.Tag != "" {
		s.tagIndex[p.Tag] = p.ID
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayerByTag(ctx context.Context, tag string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tagIndex[tag]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rp
	s.registeredPlayers[r.PlayerID] = &r
	s.usernameIndex[r.Username] = r.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	r := *rp
	return &r, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	r := *rp
	return &r, nil
}

// Presence operations

func (s *Storage) SavePresence(ctx context.Context, record *model.PresenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *record
	s.presence[r.PlayerID] = &r
	return nil
}

func (s *Storage) GetPresence(ctx context.Context, playerID model.PlayerID) (*model.PresenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.presence[playerID]
	if !ok {
		return nil, model.ErrPresenceNotFound
	}
	r := *record
	return &r, nil
}

func (s *Storage) ListPresence(ctx context.Context) ([]*model.PresenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*model.PresenceRecord, 0, len(s.presence))
	for _, record := range s.presence {
		r := *record
		records = append(records, &r)
	}
	return records, nil
}

// Battle request operations

func (s *Storage) SaveRequest(ctx context.Context, req *model.BattleRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *req
	s.requests[r.ID] = &r
	return nil
}

func (s *Storage) GetRequest(ctx context.Context, id model.RequestID) (*model.BattleRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	r := *req
	return &r, nil
}

func (s *Storage) ListRequestsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.BattleRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var requests []*model.BattleRequest
	for _, req := range s.requests {
		if req.FromID == playerID || req.ToID == playerID {
			r := *req
			requests = append(requests, &r)
		}
	}
	return requests, nil
}

func (s *Storage) TransitionRequest(ctx context.Context, id model.RequestID, target model.PlayerID, to model.RequestStatus, now time.Time) (*model.BattleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.ToID != target {
		return nil, model.ErrRequestNotFound
	}
	if req.IsTerminal() || req.IsExpired(now) {
		return nil, model.ErrRequestClosed
	}
	req.Status = to
	r := *req
	return &r, nil
}

func (s *Storage) DeleteRequestIfPending(ctx context.Context, id model.RequestID, requester model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.FromID != requester {
		return model.ErrRequestNotFound
	}
	if req.IsTerminal() {
		return model.ErrRequestClosed
	}
	delete(s.requests, id)
	return nil
}

// Battle operations

func (s *Storage) CreateBattle(ctx context.Context, battle *model.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles[battle.ID] = battle.Clone()
	return nil
}

func (s *Storage) GetBattle(ctx context.Context, id model.BattleID) (*model.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	battle, ok := s.battles[id]
	if !ok {
		return nil, model.ErrBattleNotFound
	}
	return battle.Clone(), nil
}

func (s *Storage) UpdateBattle(ctx context.Context, battle *model.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.battles[battle.ID]
	if !ok {
		return model.ErrBattleNotFound
	}
	if stored.Version != battle.Version {
		return model.ErrVersionConflict
	}
	battle.Version++
	s.battles[battle.ID] = battle.Clone()
	return nil
}

func (s *Storage) FindActiveBattle(ctx context.Context, playerID model.PlayerID) (*model.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *model.Battle
	for _, battle := range s.battles {
		if !battle.HasParticipant(playerID) || !battle.IsOpen() {
			continue
		}
		if latest == nil || battle.CreatedAt.After(latest.CreatedAt) {
			latest = battle
		}
	}
	if latest == nil {
		return nil, model.ErrNoActiveBattle
	}
	return latest.Clone(), nil
}
