package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Apply TTL only for guest players
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}

	// Use pipeline for atomic save + tag index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, playerKey(player.ID), data, ttl)
	if player.Tag != "" {
		pipe.Set(ctx, tagIndexKey(player.Tag), string(player.ID), ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByTag(ctx context.Context, tag string) (*model.Player, error) {
	playerIDStr, err := s.client.Get(ctx, tagIndexKey(tag)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetPlayer(ctx, model.PlayerID(playerIDStr))
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0) // No TTL
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	data, err := s.client.Get(ctx, registeredPlayerKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var rp model.RegisteredPlayer
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	// Look up player ID from username index
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Presence operations

func (s *Storage) SavePresence(ctx context.Context, record *model.PresenceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := presenceKey(record.PlayerID)

	// Presence records are never expired: staleness is a read-time filter
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, presenceIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPresence(ctx context.Context, playerID model.PlayerID) (*model.PresenceRecord, error) {
	data, err := s.client.Get(ctx, presenceKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPresenceNotFound
		}
		return nil, err
	}

	var record model.PresenceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) ListPresence(ctx context.Context) ([]*model.PresenceRecord, error) {
	keys, err := s.client.SMembers(ctx, presenceIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.PresenceRecord{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.PresenceRecord, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var record model.PresenceRecord
		if err := json.Unmarshal([]byte(val.(string)), &record); err != nil {
			continue // Skip invalid data
		}
		records = append(records, &record)
	}

	return records, nil
}

// Battle request operations

func (s *Storage) SaveRequest(ctx context.Context, req *model.BattleRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	key := requestKey(req.ID)
	fromIdx := requestsForPlayerIndexKey(req.FromID)
	toIdx := requestsForPlayerIndexKey(req.ToID)

	// Use pipeline for atomic save + index updates
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.RequestTTL)
	pipe.SAdd(ctx, fromIdx, key)
	pipe.Expire(ctx, fromIdx, s.cfg.RequestTTL)
	pipe.SAdd(ctx, toIdx, key)
	pipe.Expire(ctx, toIdx, s.cfg.RequestTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRequest(ctx context.Context, id model.RequestID) (*model.BattleRequest, error) {
	data, err := s.client.Get(ctx, requestKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRequestNotFound
		}
		return nil, err
	}

	var req model.BattleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Storage) ListRequestsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.BattleRequest, error) {
	keys, err := s.client.SMembers(ctx, requestsForPlayerIndexKey(playerID)).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	requests := make([]*model.BattleRequest, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Request may have expired
		}
		var req model.BattleRequest
		if err := json.Unmarshal([]byte(val.(string)), &req); err != nil {
			continue // Skip invalid data
		}
		requests = append(requests, &req)
	}

	return requests, nil
}

func (s *Storage) TransitionRequest(ctx context.Context, id model.RequestID, target model.PlayerID, to model.RequestStatus, now time.Time) (*model.BattleRequest, error) {
	key := requestKey(id)
	var result *model.BattleRequest

	// WATCH the request key so a concurrent transition aborts this one
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRequestNotFound
			}
			return err
		}

		var req model.BattleRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}

		if req.ToID != target {
			return model.ErrRequestNotFound
		}
		if req.IsTerminal() || req.IsExpired(now) {
			return model.ErrRequestClosed
		}

		req.Status = to
		updated, err := json.Marshal(&req)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}

		result = &req
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			// Another caller transitioned the request first
			return nil, model.ErrRequestClosed
		}
		return nil, err
	}
	return result, nil
}

func (s *Storage) DeleteRequestIfPending(ctx context.Context, id model.RequestID, requester model.PlayerID) error {
	key := requestKey(id)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRequestNotFound
			}
			return err
		}

		var req model.BattleRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}

		if req.FromID != requester {
			return model.ErrRequestNotFound
		}
		if req.IsTerminal() {
			return model.ErrRequestClosed
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, requestsForPlayerIndexKey(req.FromID), key)
			pipe.SRem(ctx, requestsForPlayerIndexKey(req.ToID), key)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrRequestClosed
	}
	return err
}

// Battle operations

func (s *Storage) CreateBattle(ctx context.Context, battle *model.Battle) error {
	data, err := json.Marshal(battle)
	if err != nil {
		return err
	}

	key := battleKey(battle.ID)
	score := float64(battle.CreatedAt.UnixMilli())

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.BattleTTL)
	for _, p := range battle.Participants {
		idx := battlesForPlayerIndexKey(p.ID)
		pipe.ZAdd(ctx, idx, redis.Z{Score: score, Member: key})
		pipe.Expire(ctx, idx, s.cfg.BattleTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetBattle(ctx context.Context, id model.BattleID) (*model.Battle, error) {
	data, err := s.client.Get(ctx, battleKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrBattleNotFound
		}
		return nil, err
	}

	var battle model.Battle
	if err := json.Unmarshal(data, &battle); err != nil {
		return nil, err
	}
	return &battle, nil
}

func (s *Storage) UpdateBattle(ctx context.Context, battle *model.Battle) error {
	key := battleKey(battle.ID)

	// Optimistic concurrency: WATCH the battle key, compare the stored
	// version, and write version+1 in a transaction. A concurrent writer
	// either bumps the version first (compare fails) or invalidates the
	// transaction (TxFailedErr). Either way the caller must re-read.
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrBattleNotFound
			}
			return err
		}

		var stored model.Battle
		if err := json.Unmarshal(data, &stored); err != nil {
			return err
		}

		if stored.Version != battle.Version {
			return model.ErrVersionConflict
		}

		next := battle.Clone()
		next.Version++
		updated, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return model.ErrVersionConflict
		}
		return err
	}

	battle.Version++
	return nil
}

func (s *Storage) FindActiveBattle(ctx context.Context, playerID model.PlayerID) (*model.Battle, error) {
	// Most recent first
	keys, err := s.client.ZRevRange(ctx, battlesForPlayerIndexKey(playerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Battle may have expired
			}
			return nil, err
		}

		var battle model.Battle
		if err := json.Unmarshal(data, &battle); err != nil {
			continue
		}
		if battle.IsOpen() {
			return &battle, nil
		}
	}

	return nil, model.ErrNoActiveBattle
}
