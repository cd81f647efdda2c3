package models

import "time"

type SeedState string

const (
	// SeedStateActive: secret withheld, hash published, nonce advancing.
	SeedStateActive SeedState = "active"
	// SeedStateRetiring: rotation requested, no new bets accepted.
	SeedStateRetiring SeedState = "retiring"
	// SeedStateRevealed: secret disclosed for audit. Terminal.
	SeedStateRevealed SeedState = "revealed"
)

// SeedPair holds one committed server seed and the player inputs bound to it.
// The server seed is never serialized to clients while the pair is active.
type SeedPair struct {
	ID             string    `json:"id"`
	ServerSeed     string    `json:"-"`
	ServerSeedHash string    `json:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed"`
	Nonce          int64     `json:"nonce"`
	State          SeedState `json:"state"`
	CreatedAt      time.Time `json:"created_at"`
	RevealedAt     time.Time `json:"revealed_at,omitempty"`
}

// Session is a player session: the active committed pair plus the next pair
// already committed so its hash can be shown before rotation.
type Session struct {
	ID        string    `json:"id"`
	Current   *SeedPair `json:"current"`
	Next      *SeedPair `json:"next"`
	CreatedAt time.Time `json:"created_at"`
}

// RevealedSeed is the audit disclosure for a finalized pair.
type RevealedSeed struct {
	ServerSeed     string `json:"server_seed"`
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	// NonceRange: nonces 0 through NonceMax-1 were consumed under this pair.
	NonceMax int64 `json:"nonce_range"`
}
