package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPlayerNotFound   = errors.New("player not found")

	// Presence errors
	ErrPresenceNotFound = errors.New("presence record not found")

	// Battle request errors
	ErrRequestNotFound = errors.New("battle request not found")
	ErrRequestClosed   = errors.New("battle request already resolved or expired")

	// Battle errors
	ErrBattleNotFound  = errors.New("battle not found")
	ErrNoActiveBattle  = errors.New("no active battle")
	ErrNotParticipant  = errors.New("player is not a battle participant")
	ErrNotHost         = errors.New("only the host may sync game state")
	ErrBattleFinished  = errors.New("battle is already finished")
	ErrVersionConflict = errors.New("battle was modified concurrently")
)
