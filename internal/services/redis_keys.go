package services

import "time"

const (
	KeySession   = "session:%s"
	KeyRateLimit = "ratelimit:%s:%s"

	TTLSessionDefault = 24 * time.Hour

	DefaultRateLimitBets = 30 // max bets per minute per session
)
