package services

import (
	"context"

	"dice-game-backend/internal/models"
)

// Broadcaster pushes settled bets to connected clients (the websocket feed).
type Broadcaster interface {
	BroadcastBetSettled(result *models.BetResult)
}

// SettlementPublisher hands settled bets to the external ledger pipeline.
type SettlementPublisher interface {
	PublishBetSettled(ctx context.Context, result *models.BetResult) error
}
