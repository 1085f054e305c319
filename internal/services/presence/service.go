package presence

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/dependencies/clock"
	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/storage"
)

// Config holds configuration for the presence service
type Config struct {
	// StaleAfter is how long after the last heartbeat a record still
	// counts as online. Records past it are filtered at read time, not
	// deleted.
	StaleAfter time.Duration

	// HeartbeatInterval is how often a Watcher refreshes presence while
	// the player is foregrounded
	HeartbeatInterval time.Duration
}

// DefaultConfig returns default presence configuration
func DefaultConfig() Config {
	return Config{
		StaleAfter:        5 * time.Minute,
		HeartbeatInterval: 30 * time.Second,
	}
}

// Service maintains the who-is-online registry. Writes are best-effort:
// a failed presence write is logged and swallowed, never surfaced to the
// gameplay path.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	changes *bus.Bus[model.PresenceRecord]
	logger  *slog.Logger
	cfg     Config
}

// New creates a new presence Service
func New(
	storage storage.Storage,
	clock clock.Clock,
	changes *bus.Bus[model.PresenceRecord],
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = DefaultConfig().StaleAfter
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}
	return &Service{
		storage: storage,
		clock:   clock,
		changes: changes,
		logger:  logger,
		cfg:     cfg,
	}
}

// UpdatePresence upserts the player's presence record, refreshing
// last_seen. Failures are logged and swallowed.
func (s *Service) UpdatePresence(ctx context.Context, playerID model.PlayerID, online bool) {
	if err := s.writePresence(ctx, playerID, online); err != nil {
		s.logger.Warn("presence update failed",
			slog.String("player_id", string(playerID)),
			slog.Bool("online", online),
			slog.String("error", err.Error()))
	}
}

// GoOffline flags the player offline. The record is kept, never deleted.
// Failures are logged and swallowed.
func (s *Service) GoOffline(ctx context.Context, playerID model.PlayerID) {
	s.UpdatePresence(ctx, playerID, false)
}

// FetchOnlinePlayers returns every player currently visible as online,
// sorted by trophies descending. The viewer's own record is excluded,
// as are offline records and records whose last heartbeat is stale.
func (s *Service) FetchOnlinePlayers(ctx context.Context, viewer model.PlayerID) ([]model.OnlinePlayer, error) {
	records, err := s.storage.ListPresence(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	players := make([]model.OnlinePlayer, 0, len(records))
	for _, record := range records {
		if record.PlayerID == viewer {
			continue
		}
		if !record.Visible(now, s.cfg.StaleAfter) {
			continue
		}
		players = append(players, record.Public())
	}

	sort.Slice(players, func(i, j int) bool {
		if players[i].Trophies != players[j].Trophies {
			return players[i].Trophies > players[j].Trophies
		}
		return players[i].Tag < players[j].Tag
	})

	return players, nil
}

// StartWatching begins heartbeat maintenance for a player's connection.
// The returned Watcher owns all heartbeat state; Close it when the
// connection ends.
func (s *Service) StartWatching(playerID model.PlayerID) *Watcher {
	return newWatcher(s, playerID, s.cfg.HeartbeatInterval)
}

func (s *Service) writePresence(ctx context.Context, playerID model.PlayerID, online bool) error {
	player, err := s.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}

	var old *model.PresenceRecord
	existing, err := s.storage.GetPresence(ctx, playerID)
	if err == nil {
		old = existing
	} else if !errors.Is(err, model.ErrPresenceNotFound) {
		return err
	}

	record := &model.PresenceRecord{
		PlayerID:    player.ID,
		Tag:         player.Tag,
		DisplayName: player.DisplayName,
		BannerID:    player.BannerID,
		Trophies:    player.Trophies,
		Level:       player.Level,
		IsOnline:    online,
		LastSeen:    s.clock.Now(),
	}

	if err := s.storage.SavePresence(ctx, record); err != nil {
		return err
	}

	ev := bus.Event[model.PresenceRecord]{Kind: bus.KindInsert, New: *record}
	if old != nil {
		ev.Kind = bus.KindUpdate
		ev.Old = *old
	}
	s.changes.Publish(ev)

	return nil
}
