package models

import (
	"github.com/google/uuid"
)

// Bet, session and seed pair ids are opaque identifiers, not security
// relevant; random UUIDs are fine.

func GenerateBetID() string {
	return uuid.New().String()
}

func GenerateSessionID() string {
	return uuid.New().String()
}

func GenerateSeedPairID() string {
	return uuid.New().String()
}
