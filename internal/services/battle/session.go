package battle

import (
	"sync"

	"github.com/towerclash/battlesync/internal/model"
)

// Session is a client's live view over one battle. It is the single
// owner of joined-session state (role, delivery watermark, queued
// opponent placements, latest snapshot); change handlers write into it
// and readers always see the current state through its accessors.
type Session struct {
	battleID model.BattleID
	role     model.Role
	opponent model.Participant

	mu        sync.Mutex
	status    model.BattleStatus
	watermark int64
	queue     []model.CardPlacementEvent
	snapshot  *model.SyncedStateSnapshot
}

func newSession(battle *model.Battle, role model.Role) *Session {
	s := &Session{
		battleID: battle.ID,
		role:     role,
		opponent: battle.OpponentOf(role),
	}
	// The host's delivery progress is persisted with the document;
	// the guest replays from the start of the session on every join
	if role == model.RoleHost {
		s.watermark = battle.GameState.LastProcessedWatermark
	}
	s.ingest(battle)
	return s
}

// BattleID returns the battle this session views
func (s *Session) BattleID() model.BattleID {
	return s.battleID
}

// Role returns the caller's side, fixed at battle creation
func (s *Session) Role() model.Role {
	return s.role
}

// Opponent returns the other side's display metadata
func (s *Session) Opponent() model.Participant {
	return s.opponent
}

// Status returns the battle status as of the last ingested change
func (s *Session) Status() model.BattleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Watermark returns the timestamp of the newest opponent placement the
// session has observed. It never moves backwards.
func (s *Session) Watermark() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

// NextPlacement peeks at the oldest undelivered opponent placement
// without acknowledging it
func (s *Session) NextPlacement() (model.CardPlacementEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return model.CardPlacementEvent{}, false
	}
	return s.queue[0], true
}

// ConsumePlacement acknowledges and removes the oldest undelivered
// opponent placement
func (s *Session) ConsumePlacement() (model.CardPlacementEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return model.CardPlacementEvent{}, false
	}
	event := s.queue[0]
	s.queue = s.queue[1:]
	return event, true
}

// PendingPlacements returns how many opponent placements await consumption
func (s *Session) PendingPlacements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// LatestSnapshot returns a copy of the most recent host-authoritative
// snapshot, or nil if the host has not synced yet
func (s *Session) LatestSnapshot() *model.SyncedStateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSnapshot(s.snapshot)
}

// ingest folds a fresh copy of the battle document into the session:
// status and snapshot are replaced wholesale, and opponent placements
// past the watermark are queued in timestamp order with the watermark
// advanced to the newest seen.
func (s *Session) ingest(battle *model.Battle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = battle.Status
	if battle.GameState.SyncedState != nil {
		s.snapshot = cloneSnapshot(battle.GameState.SyncedState)
	}

	for _, p := range battle.GameState.PlacementsAfter(s.role.Other(), s.watermark) {
		s.queue = append(s.queue, p)
		if p.Timestamp > s.watermark {
			s.watermark = p.Timestamp
		}
	}
}

func cloneSnapshot(snap *model.SyncedStateSnapshot) *model.SyncedStateSnapshot {
	if snap == nil {
		return nil
	}
	c := *snap
	if snap.HostTowers != nil {
		c.HostTowers = append([]int(nil), snap.HostTowers...)
	}
	if snap.GuestTowers != nil {
		c.GuestTowers = append([]int(nil), snap.GuestTowers...)
	}
	return &c
}
