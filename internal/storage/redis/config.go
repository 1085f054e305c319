package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings for different entity types. Presence records carry no
	// TTL: they are flagged offline, never removed.
	GuestPlayerTTL time.Duration
	RequestTTL     time.Duration
	BattleTTL      time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		PoolSize:       10,
		MinIdleConns:   2,
		GuestPlayerTTL: 24 * time.Hour,
		RequestTTL:     24 * time.Hour,
		BattleTTL:      24 * time.Hour,
	}
}
