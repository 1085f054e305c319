package model

import "time"

// PresenceRecord tracks a player's online status and public stats.
// There is at most one record per player; records are flagged offline,
// never deleted.
type PresenceRecord struct {
	PlayerID    PlayerID
	Tag         string
	DisplayName string
	BannerID    int
	Trophies    int
	Level       int
	IsOnline    bool
	LastSeen    time.Time
}

// Visible reports whether the record should appear in online listings:
// the player is flagged online and was seen within staleAfter.
func (p *PresenceRecord) Visible(now time.Time, staleAfter time.Duration) bool {
	return p.IsOnline && now.Sub(p.LastSeen) <= staleAfter
}

// OnlinePlayer is the read-only projection of a PresenceRecord shown to
// other players. It carries the public tag but never the internal identity.
type OnlinePlayer struct {
	Tag         string
	DisplayName string
	BannerID    int
	Trophies    int
	Level       int
	LastSeen    time.Time
}

// Public returns the projection of this record
func (p *PresenceRecord) Public() OnlinePlayer {
	return OnlinePlayer{
		Tag:         p.Tag,
		DisplayName: p.DisplayName,
		BannerID:    p.BannerID,
		Trophies:    p.Trophies,
		Level:       p.Level,
		LastSeen:    p.LastSeen,
	}
}
