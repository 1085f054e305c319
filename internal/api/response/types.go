package response

import (
	"time"

	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/services/auth"
	"github.com/towerclash/battlesync/internal/services/battle"
)

// Player represents the caller's own player in API responses
type Player struct {
	ID          string `json:"id"`
	Tag         string `json:"tag"`
	DisplayName string `json:"display_name"`
	BannerID    int    `json:"banner_id"`
	Trophies    int    `json:"trophies"`
	Level       int    `json:"level"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		Tag:         p.Tag,
		DisplayName: p.DisplayName,
		BannerID:    p.BannerID,
		Trophies:    p.Trophies,
		Level:       p.Level,
		IsGuest:     p.IsGuest,
	}
}

// PublicPlayer is another player as seen through their tag. It never
// carries the internal player id.
type PublicPlayer struct {
	Tag         string `json:"tag"`
	DisplayName string `json:"display_name"`
	BannerID    int    `json:"banner_id"`
	Trophies    int    `json:"trophies"`
	Level       int    `json:"level"`
}

// PublicPlayerFromModel converts a model.Player to its public view
func PublicPlayerFromModel(p *model.Player) PublicPlayer {
	return PublicPlayer{
		Tag:         p.Tag,
		DisplayName: p.DisplayName,
		BannerID:    p.BannerID,
		Trophies:    p.Trophies,
		Level:       p.Level,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// OnlinePlayer is one row of the online player list
type OnlinePlayer struct {
	Tag         string    `json:"tag"`
	DisplayName string    `json:"display_name"`
	BannerID    int       `json:"banner_id"`
	Trophies    int       `json:"trophies"`
	Level       int       `json:"level"`
	LastSeen    time.Time `json:"last_seen"`
}

// OnlinePlayerFromModel converts a model.OnlinePlayer
func OnlinePlayerFromModel(p model.OnlinePlayer) OnlinePlayer {
	return OnlinePlayer{
		Tag:         p.Tag,
		DisplayName: p.DisplayName,
		BannerID:    p.BannerID,
		Trophies:    p.Trophies,
		Level:       p.Level,
		LastSeen:    p.LastSeen,
	}
}

// OnlinePlayersResponse is the response for the online player list
type OnlinePlayersResponse struct {
	Players []OnlinePlayer `json:"players"`
}

// OnlinePlayersFromModel converts a list of model.OnlinePlayer
func OnlinePlayersFromModel(players []model.OnlinePlayer) OnlinePlayersResponse {
	out := make([]OnlinePlayer, len(players))
	for i, p := range players {
		out[i] = OnlinePlayerFromModel(p)
	}
	return OnlinePlayersResponse{Players: out}
}

// BattleRequest represents a battle request in API responses
type BattleRequest struct {
	ID        string    `json:"id"`
	FromName  string    `json:"from_name"`
	ToName    string    `json:"to_name"`
	Status    string    `json:"status"`
	Incoming  bool      `json:"incoming"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BattleRequestFromModel converts a model.BattleRequest as seen by viewer
func BattleRequestFromModel(r *model.BattleRequest, viewer model.PlayerID) BattleRequest {
	return BattleRequest{
		ID:        string(r.ID),
		FromName:  r.FromName,
		ToName:    r.ToName,
		Status:    string(r.Status),
		Incoming:  r.ToID == viewer,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

// BattleRequestsResponse is the response for the request list
type BattleRequestsResponse struct {
	Incoming []BattleRequest `json:"incoming"`
	Outgoing []BattleRequest `json:"outgoing"`
}

// BattleRequestsFromModel converts split request lists
func BattleRequestsFromModel(incoming, outgoing []*model.BattleRequest, viewer model.PlayerID) BattleRequestsResponse {
	resp := BattleRequestsResponse{
		Incoming: make([]BattleRequest, len(incoming)),
		Outgoing: make([]BattleRequest, len(outgoing)),
	}
	for i, r := range incoming {
		resp.Incoming[i] = BattleRequestFromModel(r, viewer)
	}
	for i, r := range outgoing {
		resp.Outgoing[i] = BattleRequestFromModel(r, viewer)
	}
	return resp
}

// Participant represents one side of a battle
type Participant struct {
	DisplayName string `json:"display_name"`
	BannerID    int    `json:"banner_id"`
	Level       int    `json:"level"`
}

// ParticipantFromModel converts a model.Participant
func ParticipantFromModel(p model.Participant) Participant {
	return Participant{
		DisplayName: p.DisplayName,
		BannerID:    p.BannerID,
		Level:       p.Level,
	}
}

// Placement represents a card placement event
type Placement struct {
	CardID    string `json:"card_id"`
	CardIndex int    `json:"card_index"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Role      string `json:"role"`
	Timestamp int64  `json:"timestamp"`
}

// PlacementFromModel converts a model.CardPlacementEvent
func PlacementFromModel(p model.CardPlacementEvent) Placement {
	return Placement{
		CardID:    p.CardID,
		CardIndex: p.CardIndex,
		X:         p.Position.X,
		Y:         p.Position.Y,
		Role:      string(p.Role),
		Timestamp: p.Timestamp,
	}
}

// StateSnapshot is the host-authoritative game state summary
type StateSnapshot struct {
	TimeRemainingSec int     `json:"time_remaining_sec"`
	HostElixir       float64 `json:"host_elixir"`
	GuestElixir      float64 `json:"guest_elixir"`
	HostTowers       []int   `json:"host_towers"`
	GuestTowers      []int   `json:"guest_towers"`
	Outcome          string  `json:"outcome"`
}

// StateSnapshotFromModel converts a model.SyncedStateSnapshot
func StateSnapshotFromModel(s *model.SyncedStateSnapshot) *StateSnapshot {
	if s == nil {
		return nil
	}
	return &StateSnapshot{
		TimeRemainingSec: s.TimeRemainingSec,
		HostElixir:       s.HostElixir,
		GuestElixir:      s.GuestElixir,
		HostTowers:       s.HostTowers,
		GuestTowers:      s.GuestTowers,
		Outcome:          string(s.Outcome),
	}
}

// Battle represents a battle in API responses
type Battle struct {
	ID          string         `json:"id"`
	Host        Participant    `json:"host"`
	Guest       Participant    `json:"guest"`
	Status      string         `json:"status"`
	WinnerID    string         `json:"winner_id,omitempty"`
	Placements  []Placement    `json:"placements"`
	SyncedState *StateSnapshot `json:"synced_state"`
	Version     int64          `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BattleFromModel converts a model.Battle
func BattleFromModel(b *model.Battle) Battle {
	placements := make([]Placement, len(b.GameState.Placements))
	for i, p := range b.GameState.Placements {
		placements[i] = PlacementFromModel(p)
	}
	return Battle{
		ID:          string(b.ID),
		Host:        ParticipantFromModel(b.Host()),
		Guest:       ParticipantFromModel(b.Guest()),
		Status:      string(b.Status),
		WinnerID:    string(b.WinnerID),
		Placements:  placements,
		SyncedState: StateSnapshotFromModel(b.GameState.SyncedState),
		Version:     b.Version,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// BattleSession is the caller's view of a joined battle
type BattleSession struct {
	BattleID string      `json:"battle_id"`
	Role     string      `json:"role"`
	Opponent Participant `json:"opponent"`
	Status   string      `json:"status"`
}

// BattleSessionFromModel converts a battle.Session
func BattleSessionFromModel(s *battle.Session) BattleSession {
	return BattleSession{
		BattleID: string(s.BattleID()),
		Role:     string(s.Role()),
		Opponent: ParticipantFromModel(s.Opponent()),
		Status:   string(s.Status()),
	}
}

// ResumableBattle is the reference to a battle a player can rejoin
type ResumableBattle struct {
	BattleID     string `json:"battle_id"`
	Role         string `json:"role"`
	OpponentName string `json:"opponent_name"`
	Status       string `json:"status"`
}

// ResumableBattleFromModel converts a battle.ResumableBattle
func ResumableBattleFromModel(r *battle.ResumableBattle) ResumableBattle {
	return ResumableBattle{
		BattleID:     string(r.BattleID),
		Role:         string(r.Role),
		OpponentName: r.OpponentName,
		Status:       string(r.Status),
	}
}
