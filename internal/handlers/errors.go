package handlers

import (
	"errors"
	"net/http"

	"dice-game-backend/internal/fair"
)

// statusFor maps the protocol error taxonomy onto HTTP statuses. Lock
// timeouts are 503 because the nonce was not consumed and the caller may
// retry the whole call.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fair.ErrInvalidBet), errors.Is(err, fair.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, fair.ErrSeedNotActive), errors.Is(err, fair.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, fair.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
