package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdatePresenceRequest is the request body for a presence heartbeat
type UpdatePresenceRequest struct {
	Online bool `json:"online"`
}

// SendBattleRequestRequest is the request body for challenging a player
type SendBattleRequestRequest struct {
	TargetTag string `json:"target_tag"`
}

// CreateBattleRequest is the request body for creating a battle from an
// accepted request
type CreateBattleRequest struct {
	RequestID string `json:"request_id"`
}

// SendPlacementRequest is the request body for relaying a card placement
type SendPlacementRequest struct {
	CardID    string `json:"card_id"`
	CardIndex int    `json:"card_index"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// SyncStateRequest is the request body for the host's snapshot sync
type SyncStateRequest struct {
	TimeRemainingSec int     `json:"time_remaining_sec"`
	HostElixir       float64 `json:"host_elixir"`
	GuestElixir      float64 `json:"guest_elixir"`
	HostTowers       []int   `json:"host_towers"`
	GuestTowers      []int   `json:"guest_towers"`
	Outcome          string  `json:"outcome"`
}

// ReportGameEndRequest is the request body for finishing a battle
type ReportGameEndRequest struct {
	WinnerID string `json:"winner_id,omitempty"`
}
