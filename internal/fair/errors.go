package fair

import "errors"

var (
	// ErrInvalidBet rejects a bet before any state mutation; the caller may
	// retry with corrected parameters.
	ErrInvalidBet = errors.New("invalid bet parameters")

	// ErrInvalidInput marks malformed derivation inputs (empty client seed,
	// negative nonce). Programming error, fatal to the call.
	ErrInvalidInput = errors.New("invalid derivation input")

	// ErrSeedNotActive is returned when a bet targets a pair that has been
	// retired or revealed.
	ErrSeedNotActive = errors.New("seed pair not active")

	// ErrInvalidState marks protocol misuse, e.g. revealing a pair that still
	// has unresolved bets.
	ErrInvalidState = errors.New("invalid seed pair state")

	// ErrLockTimeout means the nonce lock could not be acquired in time. The
	// nonce was not consumed; the whole placeBet call may be retried.
	ErrLockTimeout = errors.New("nonce lock timeout")
)
