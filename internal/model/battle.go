package model

import (
	"sort"
	"time"
)

// BattleID uniquely identifies a battle session
type BattleID string

// BattleStatus represents the lifecycle state of a battle session
type BattleStatus string

const (
	BattleStatusWaiting  BattleStatus = "waiting"  // Created, guest not yet confirmed
	BattleStatusActive   BattleStatus = "active"   // Both sides participating
	BattleStatusFinished BattleStatus = "finished" // Terminal, winner optionally recorded
)

// Role identifies a participant's side in a battle. The host (player 1)
// is authoritative for the synchronized snapshot.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Other returns the opposite role
func (r Role) Other() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

// Participant holds one side's identity and display metadata
type Participant struct {
	ID          PlayerID
	DisplayName string
	BannerID    int
	Level       int
}

// Position is an arena tile coordinate
type Position struct {
	X int
	Y int
}

// CardPlacementEvent is a discrete action emitted by one peer for the
// other to observe. Immutable once appended.
type CardPlacementEvent struct {
	CardID    string
	CardIndex int // client-assigned hand slot
	Position  Position
	Role      Role
	Timestamp int64 // client clock, unix milliseconds
}

// BattleOutcome is the overall result carried in a synced snapshot
type BattleOutcome string

const (
	OutcomeInProgress BattleOutcome = "in_progress"
	OutcomeHostWin    BattleOutcome = "host_win"
	OutcomeGuestWin   BattleOutcome = "guest_win"
	OutcomeDraw       BattleOutcome = "draw"
)

// SyncedStateSnapshot is the host-authoritative summary of simulated
// game state. Produced and overwritten only by the host; read-only for
// the guest.
type SyncedStateSnapshot struct {
	TimeRemainingSec int
	HostElixir       float64
	GuestElixir      float64
	HostTowers       []int // remaining health per tower
	GuestTowers      []int
	Outcome          BattleOutcome
}

// GameState is the mutable document embedded in a battle. Placements is
// append-only for the lifetime of the session.
type GameState struct {
	Placements             []CardPlacementEvent
	LastProcessedWatermark int64
	SyncedState            *SyncedStateSnapshot
}

// PlacementsAfter returns the placements tagged with the given role whose
// timestamp exceeds the watermark, in timestamp order.
func (gs *GameState) PlacementsAfter(role Role, watermark int64) []CardPlacementEvent {
	var out []CardPlacementEvent
	for _, p := range gs.Placements {
		if p.Role == role && p.Timestamp > watermark {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Battle is the shared record of a match between two role-assigned
// participants. Participants[0] is the host; role assignment is fixed at
// creation. Version supports optimistic concurrency on the embedded
// game state document.
type Battle struct {
	ID           BattleID
	Participants [2]Participant
	Status       BattleStatus
	WinnerID     PlayerID // empty unless recorded at finish
	GameState    GameState
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Host returns the player-1 participant
func (b *Battle) Host() Participant {
	return b.Participants[0]
}

// Guest returns the player-2 participant
func (b *Battle) Guest() Participant {
	return b.Participants[1]
}

// RoleOf resolves a player's role by identity comparison
func (b *Battle) RoleOf(id PlayerID) (Role, bool) {
	switch id {
	case b.Participants[0].ID:
		return RoleHost, true
	case b.Participants[1].ID:
		return RoleGuest, true
	}
	return "", false
}

// ParticipantFor returns the participant playing the given role
func (b *Battle) ParticipantFor(role Role) Participant {
	if role == RoleHost {
		return b.Participants[0]
	}
	return b.Participants[1]
}

// OpponentOf returns the participant opposing the given role
func (b *Battle) OpponentOf(role Role) Participant {
	return b.ParticipantFor(role.Other())
}

// HasParticipant reports whether the player is one of the two sides
func (b *Battle) HasParticipant(id PlayerID) bool {
	_, ok := b.RoleOf(id)
	return ok
}

// IsOpen reports whether the battle can still be resumed
func (b *Battle) IsOpen() bool {
	return b.Status == BattleStatusWaiting || b.Status == BattleStatusActive
}

// Clone returns a deep copy of the battle
func (b *Battle) Clone() *Battle {
	c := *b
	if b.GameState.Placements != nil {
		c.GameState.Placements = make([]CardPlacementEvent, len(b.GameState.Placements))
		copy(c.GameState.Placements, b.GameState.Placements)
	}
	if b.GameState.SyncedState != nil {
		snap := *b.GameState.SyncedState
		if snap.HostTowers != nil {
			snap.HostTowers = append([]int(nil), snap.HostTowers...)
		}
		if snap.GuestTowers != nil {
			snap.GuestTowers = append([]int(nil), snap.GuestTowers...)
		}
		c.GameState.SyncedState = &snap
	}
	return &c
}
