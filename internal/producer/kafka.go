package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dice-game-backend/internal/models"

	"github.com/segmentio/kafka-go"
)

// BetSettledEvent is the contract consumed by the external ledger, which is
// responsible for applying the payout to the player balance.
type BetSettledEvent struct {
	BetID      string    `json:"bet_id"`
	SessionID  string    `json:"session_id"`
	SeedPairID string    `json:"seed_pair_id"`
	Nonce      int64     `json:"nonce"`
	BetAmount  float64   `json:"bet_amount"`
	IsWin      bool      `json:"is_win"`
	Payout     float64   `json:"payout"`
	Roll       float64   `json:"roll"`
	SettledAt  time.Time `json:"settled_at"`
}

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers, topic string) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaProducer) PublishBetSettled(ctx context.Context, result *models.BetResult) error {
	event := BetSettledEvent{
		BetID:      result.ID,
		SessionID:  result.SessionID,
		SeedPairID: result.SeedPairID,
		Nonce:      result.Nonce,
		BetAmount:  result.BetAmount,
		IsWin:      result.IsWin,
		Payout:     result.Payout,
		Roll:       result.Roll,
		SettledAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal bet settled event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(result.SessionID),
		Value: payload,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write bet settled event: %w", err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
