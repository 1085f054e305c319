package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/towerclash/battlesync/internal/model"
	"github.com/towerclash/battlesync/internal/services/auth"
	"github.com/towerclash/battlesync/internal/services/battle"
	"github.com/towerclash/battlesync/internal/services/matchmaking"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeRequestNotFound    = "REQUEST_NOT_FOUND"
	CodeRequestClosed      = "REQUEST_CLOSED"
	CodeSelfRequest        = "SELF_REQUEST"
	CodeNotChallenger      = "NOT_CHALLENGER"
	CodeRequestNotAccepted = "REQUEST_NOT_ACCEPTED"
	CodeBattleNotFound     = "BATTLE_NOT_FOUND"
	CodeNoActiveBattle     = "NO_ACTIVE_BATTLE"
	CodeNotParticipant     = "NOT_PARTICIPANT"
	CodeNotHost            = "NOT_HOST"
	CodeBattleFinished     = "BATTLE_FINISHED"
	CodeWriteConflict      = "WRITE_CONFLICT"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrRequestNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRequestNotFound, "Battle request not found"}}
	case errors.Is(err, model.ErrRequestClosed):
		return &httpError{http.StatusConflict, APIError{CodeRequestClosed, "Battle request is no longer actionable"}}
	case errors.Is(err, model.ErrBattleNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeBattleNotFound, "Battle not found"}}
	case errors.Is(err, model.ErrNoActiveBattle):
		return &httpError{http.StatusNotFound, APIError{CodeNoActiveBattle, "No active battle"}}
	case errors.Is(err, model.ErrNotParticipant):
		return &httpError{http.StatusForbidden, APIError{CodeNotParticipant, "Not a participant in this battle"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can sync game state"}}
	case errors.Is(err, model.ErrBattleFinished):
		return &httpError{http.StatusConflict, APIError{CodeBattleFinished, "Battle has already finished"}}
	case errors.Is(err, model.ErrVersionConflict):
		return &httpError{http.StatusConflict, APIError{CodeWriteConflict, "Write conflict, try again"}}

	// Map matchmaking errors
	case errors.Is(err, matchmaking.ErrSelfRequest):
		return &httpError{http.StatusBadRequest, APIError{CodeSelfRequest, "Cannot send a battle request to yourself"}}

	// Map battle errors
	case errors.Is(err, battle.ErrNotChallenger):
		return &httpError{http.StatusForbidden, APIError{CodeNotChallenger, "Only the challenger may create the battle"}}
	case errors.Is(err, battle.ErrRequestNotAccepted):
		return &httpError{http.StatusConflict, APIError{CodeRequestNotAccepted, "Battle request has not been accepted"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
