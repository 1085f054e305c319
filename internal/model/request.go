package model

import "time"

// RequestID uniquely identifies a battle request
type RequestID string

// RequestStatus represents the state of a battle request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"
	RequestStatusExpired  RequestStatus = "expired"
)

// BattleRequest is a pairing proposal from one player to another.
// Status transitions are one-way: once a request leaves pending it is
// terminal and never mutated again.
type BattleRequest struct {
	ID        RequestID
	FromID    PlayerID
	ToID      PlayerID
	FromName  string
	ToName    string
	Status    RequestStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the request's expiry has passed
func (r *BattleRequest) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// IsTerminal reports whether the request has left the pending state
func (r *BattleRequest) IsTerminal() bool {
	return r.Status != RequestStatusPending
}
