package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case PublicPlayer:
		o.printPublicPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case OnlinePlayers:
		o.printOnlinePlayers(v)
	case BattleRequests:
		o.printBattleRequests(v)
	case BattleRequest:
		o.printBattleRequest(v)
	case Battle:
		o.printBattle(v)
	case BattleSession:
		o.printBattleSession(v)
	case ResumableBattle:
		o.printResumableBattle(v)
	case Placement:
		o.printPlacement(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	Tag         string `json:"tag"`
	DisplayName string `json:"display_name"`
	BannerID    int    `json:"banner_id"`
	Trophies    int    `json:"trophies"`
	Level       int    `json:"level"`
	IsGuest     bool   `json:"is_guest"`
}

// PublicPlayer is another player's public profile
type PublicPlayer struct {
	Tag         string `json:"tag"`
	DisplayName string `json:"display_name"`
	BannerID    int    `json:"banner_id"`
	Trophies    int    `json:"trophies"`
	Level       int    `json:"level"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// OnlinePlayer response type
type OnlinePlayer struct {
	Tag         string    `json:"tag"`
	DisplayName string    `json:"display_name"`
	Trophies    int       `json:"trophies"`
	Level       int       `json:"level"`
	LastSeen    time.Time `json:"last_seen"`
}

// OnlinePlayers response type
type OnlinePlayers struct {
	Players []OnlinePlayer `json:"players"`
}

// BattleRequest response type
type BattleRequest struct {
	ID        string    `json:"id"`
	FromName  string    `json:"from_name"`
	ToName    string    `json:"to_name"`
	Status    string    `json:"status"`
	Incoming  bool      `json:"incoming"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BattleRequests response type
type BattleRequests struct {
	Incoming []BattleRequest `json:"incoming"`
	Outgoing []BattleRequest `json:"outgoing"`
}

// Participant response type
type Participant struct {
	DisplayName string `json:"display_name"`
	BannerID    int    `json:"banner_id"`
	Level       int    `json:"level"`
}

// Placement response type
type Placement struct {
	CardID    string `json:"card_id"`
	CardIndex int    `json:"card_index"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Role      string `json:"role"`
	Timestamp int64  `json:"timestamp"`
}

// StateSnapshot response type
type StateSnapshot struct {
	TimeRemainingSec int     `json:"time_remaining_sec"`
	HostElixir       float64 `json:"host_elixir"`
	GuestElixir      float64 `json:"guest_elixir"`
	HostTowers       []int   `json:"host_towers"`
	GuestTowers      []int   `json:"guest_towers"`
	Outcome          string  `json:"outcome"`
}

// Battle response type
type Battle struct {
	ID          string         `json:"id"`
	Host        Participant    `json:"host"`
	Guest       Participant    `json:"guest"`
	Status      string         `json:"status"`
	WinnerID    string         `json:"winner_id,omitempty"`
	Placements  []Placement    `json:"placements"`
	SyncedState *StateSnapshot `json:"synced_state"`
	Version     int64          `json:"version"`
}

// BattleSession response type
type BattleSession struct {
	BattleID string      `json:"battle_id"`
	Role     string      `json:"role"`
	Opponent Participant `json:"opponent"`
	Status   string      `json:"status"`
}

// ResumableBattle response type
type ResumableBattle struct {
	BattleID     string `json:"battle_id"`
	Role         string `json:"role"`
	OpponentName string `json:"opponent_name"`
	Status       string `json:"status"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (#%s)\n", p.DisplayName, p.Tag)
	fmt.Printf("Level: %d  Trophies: %d\n", p.Level, p.Trophies)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printPublicPlayer(p PublicPlayer) {
	fmt.Printf("Player: %s (#%s)\n", p.DisplayName, p.Tag)
	fmt.Printf("Level: %d  Trophies: %d\n", p.Level, p.Trophies)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printOnlinePlayers(l OnlinePlayers) {
	if len(l.Players) == 0 {
		fmt.Println("Nobody online")
		return
	}
	fmt.Printf("Online players (%d):\n", len(l.Players))
	for _, p := range l.Players {
		fmt.Printf("  - %s (#%s) - level %d, %d trophies\n", p.DisplayName, p.Tag, p.Level, p.Trophies)
	}
}

func (o *Output) printBattleRequest(r BattleRequest) {
	direction := "to"
	name := r.ToName
	if r.Incoming {
		direction = "from"
		name = r.FromName
	}
	fmt.Printf("Request %s: %s %s (%s), expires %s\n",
		r.ID, direction, name, r.Status, r.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printBattleRequests(l BattleRequests) {
	fmt.Printf("Incoming (%d):\n", len(l.Incoming))
	for _, r := range l.Incoming {
		fmt.Printf("  - %s from %s (%s)\n", r.ID, r.FromName, r.Status)
	}
	fmt.Printf("Outgoing (%d):\n", len(l.Outgoing))
	for _, r := range l.Outgoing {
		fmt.Printf("  - %s to %s (%s)\n", r.ID, r.ToName, r.Status)
	}
}

func (o *Output) printBattle(b Battle) {
	fmt.Printf("Battle: %s\n", b.ID)
	fmt.Printf("Status: %s\n", b.Status)
	fmt.Printf("Host: %s (level %d)\n", b.Host.DisplayName, b.Host.Level)
	fmt.Printf("Guest: %s (level %d)\n", b.Guest.DisplayName, b.Guest.Level)
	if b.WinnerID != "" {
		fmt.Printf("Winner: %s\n", b.WinnerID)
	}
	fmt.Printf("Placements (%d):\n", len(b.Placements))
	for _, p := range b.Placements {
		fmt.Printf("  - [%s] %s at (%d,%d)\n", p.Role, p.CardID, p.X, p.Y)
	}
	if b.SyncedState != nil {
		s := b.SyncedState
		fmt.Printf("Synced state: %ds remaining, elixir %.1f/%.1f, outcome %s\n",
			s.TimeRemainingSec, s.HostElixir, s.GuestElixir, s.Outcome)
	}
}

func (o *Output) printBattleSession(s BattleSession) {
	fmt.Printf("Battle: %s\n", s.BattleID)
	fmt.Printf("Role: %s\n", s.Role)
	fmt.Printf("Opponent: %s (level %d)\n", s.Opponent.DisplayName, s.Opponent.Level)
	fmt.Printf("Status: %s\n", s.Status)
}

func (o *Output) printResumableBattle(r ResumableBattle) {
	fmt.Printf("Active battle: %s\n", r.BattleID)
	fmt.Printf("Role: %s\n", r.Role)
	fmt.Printf("Opponent: %s\n", r.OpponentName)
	fmt.Printf("Status: %s\n", r.Status)
}

func (o *Output) printPlacement(p Placement) {
	fmt.Printf("Placed %s (slot %d) at (%d,%d) as %s\n", p.CardID, p.CardIndex, p.X, p.Y, p.Role)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
