package models

const (
	ReasonSeedHashMismatch = "SEED_HASH_MISMATCH"
	ReasonRollMismatch     = "ROLL_MISMATCH"
	ReasonInvalidInput     = "INVALID_INPUT"
)

type VerificationRequest struct {
	ServerSeed     string  `json:"server_seed" binding:"required"`
	ServerSeedHash string  `json:"server_seed_hash" binding:"required"`
	ClientSeed     string  `json:"client_seed" binding:"required"`
	Nonce          int64   `json:"nonce"`
	ClaimedRoll    float64 `json:"claimed_roll"`
}

type VerificationResult struct {
	Valid        bool    `json:"valid"`
	Reason       string  `json:"reason,omitempty"`
	ExpectedRoll float64 `json:"expected_roll,omitempty"`
}

// GameConfig is the table configuration served to clients, mirroring what the
// game originally shipped as custom_settings.
type GameConfig struct {
	RTP       float64 `json:"rtp"`
	MinBet    float64 `json:"min_bet"`
	MaxBet    float64 `json:"max_bet"`
	MaxWin    float64 `json:"max_win"`
	MinTarget float64 `json:"min_target"`
	MaxTarget float64 `json:"max_target"`
	Precision int     `json:"precision"`
	Currency  string  `json:"currency"`
}
