package redis

import (
	"fmt"

	"github.com/towerclash/battlesync/internal/model"
)

// Key prefix for all battle sync data
const keyPrefix = "battlesync"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// tagIndexKey returns the Redis key for the tag -> player_id index
func tagIndexKey(tag string) string {
	return fmt.Sprintf("%s:idx:tag:%s", keyPrefix, tag)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// presenceKey returns the Redis key for a PresenceRecord
func presenceKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:presence:%s", keyPrefix, playerID)
}

// presenceIndexKey returns the Redis key for the SET of all presence keys
func presenceIndexKey() string {
	return fmt.Sprintf("%s:idx:presence", keyPrefix)
}

// requestKey returns the Redis key for a BattleRequest
func requestKey(id model.RequestID) string {
	return fmt.Sprintf("%s:request:%s", keyPrefix, id)
}

// requestsForPlayerIndexKey returns the Redis key for the SET of request
// keys addressed to or from a player
func requestsForPlayerIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:requests_for_player:%s", keyPrefix, playerID)
}

// battleKey returns the Redis key for a Battle
func battleKey(id model.BattleID) string {
	return fmt.Sprintf("%s:battle:%s", keyPrefix, id)
}

// battlesForPlayerIndexKey returns the Redis key for the ZSET of battle
// keys for a player, scored by creation time
func battlesForPlayerIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:battles_for_player:%s", keyPrefix, playerID)
}
