package models

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirectionUnder Direction = "under"
	DirectionOver  Direction = "over"
)

type BetStatus string

const (
	// BetStatusPending is written before settlement so a consumed nonce is
	// always visible in the log, even if the process dies mid-settlement.
	BetStatusPending BetStatus = "pending"
	BetStatusSettled BetStatus = "settled"
	// BetStatusVoid marks an orphaned nonce found during recovery. The nonce
	// is burned, never reused.
	BetStatusVoid BetStatus = "void"
)

type BetRequest struct {
	BetAmount     float64   `json:"bet_amount" binding:"required"`
	TargetPercent float64   `json:"target_percent" binding:"required"`
	Direction     Direction `json:"direction" binding:"required"`
	ClientSeed    string    `json:"client_seed,omitempty"`
}

// Validate checks the protocol-level invariants. Table limits (min/max bet,
// target bounds) are checked separately against the game config.
func (br *BetRequest) Validate() error {
	if br.BetAmount <= 0 {
		return fmt.Errorf("bet amount must be positive, got %f", br.BetAmount)
	}

	// A target at 0 or 100 yields a 0% or 100% win chance in one direction.
	if br.TargetPercent <= 0 || br.TargetPercent >= 100 {
		return fmt.Errorf("target must be strictly between 0 and 100, got %f", br.TargetPercent)
	}

	switch br.Direction {
	case DirectionUnder, DirectionOver:
	default:
		return fmt.Errorf("invalid direction: %s", br.Direction)
	}

	return nil
}

// BetResult is created exactly once at settlement and is immutable after.
// It references the seed pair by id and never carries the secret seed while
// the pair is active.
type BetResult struct {
	ID            string    `json:"bet_id"`
	SessionID     string    `json:"session_id"`
	SeedPairID    string    `json:"seed_pair_id"`
	Nonce         int64     `json:"nonce"`
	Direction     Direction `json:"direction"`
	TargetPercent float64   `json:"target_percent"`
	Roll          float64   `json:"roll"`
	WinChance     float64   `json:"win_chance"`
	Multiplier    float64   `json:"multiplier"`
	IsWin         bool      `json:"is_win"`
	BetAmount     float64   `json:"bet_amount"`
	Payout        float64   `json:"payout"`
	ClientSeed    string    `json:"client_seed"`
	Status        BetStatus `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
