package fair

import (
	"fmt"
	"math"

	"dice-game-backend/internal/models"
)

// Outcome holds everything Resolve derives from a bet and its roll.
type Outcome struct {
	Roll       float64
	WinChance  float64
	Multiplier float64
	IsWin      bool
	Payout     float64
}

// WinChance returns the probability (in percent) of winning a bet with the
// given target and direction.
func WinChance(targetPercent float64, direction models.Direction) float64 {
	if direction == models.DirectionUnder {
		return targetPercent
	}
	return 100 - targetPercent
}

// Multiplier returns the payout multiplier for a win chance under the
// configured RTP. Zero when the chance is out of range, mirroring the
// original game's quote behavior.
func Multiplier(winChance, rtp float64) float64 {
	if winChance <= 0 || winChance >= 100 {
		return 0
	}
	return Round4((100 / winChance) * rtp)
}

// Resolve settles a bet against an already-derived roll. Pure computation: it
// validates, computes and returns, it cannot partially fail.
//
// Boundary convention: a roll exactly equal to the target loses in both
// directions. Strict inequality here is load-bearing for verification.
func Resolve(req *models.BetRequest, roll, rtp float64) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}

	winChance := WinChance(req.TargetPercent, req.Direction)
	if winChance <= 0 {
		// Unreachable given Validate, kept as a guard against a zero divisor.
		return Outcome{}, fmt.Errorf("%w: win chance %.5f", ErrInvalidBet, winChance)
	}

	multiplier := Multiplier(winChance, rtp)

	var isWin bool
	if req.Direction == models.DirectionUnder {
		isWin = roll < req.TargetPercent
	} else {
		isWin = roll > req.TargetPercent
	}

	payout := 0.0
	if isWin {
		payout = Round6(req.BetAmount * multiplier)
	}

	return Outcome{
		Roll:       roll,
		WinChance:  winChance,
		Multiplier: multiplier,
		IsWin:      isWin,
		Payout:     payout,
	}, nil
}

// Round4 rounds to 4 decimal places (multipliers).
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Round6 rounds to 6 decimal places (monetary amounts).
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
