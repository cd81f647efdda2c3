package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dice-game-backend/internal/config"
	"dice-game-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisService persists session records (seed pairs, nonce counters) and
// backs per-session rate limiting.
type RedisService struct {
	client     *redis.Client
	sessionTTL time.Duration
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = TTLSessionDefault
	}

	return &RedisService{client: client, sessionTTL: ttl}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// sessionRecord is the at-rest layout. Server seeds are only meaningful
// server-side, so they are stored here explicitly even though SeedPair hides
// them from JSON responses.
type sessionRecord struct {
	Session           *models.Session `json:"session"`
	CurrentServerSeed string          `json:"current_server_seed"`
	NextServerSeed    string          `json:"next_server_seed"`
}

func (s *RedisService) SaveSession(ctx context.Context, session *models.Session) error {
	key := fmt.Sprintf(KeySession, session.ID)

	rec := sessionRecord{Session: session}
	if session.Current != nil {
		rec.CurrentServerSeed = session.Current.ServerSeed
	}
	if session.Next != nil {
		rec.NextServerSeed = session.Next.ServerSeed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return s.client.Set(ctx, key, data, s.sessionTTL).Err()
}

func (s *RedisService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	key := fmt.Sprintf(KeySession, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if rec.Session.Current != nil {
		rec.Session.Current.ServerSeed = rec.CurrentServerSeed
	}
	if rec.Session.Next != nil {
		rec.Session.Next.ServerSeed = rec.NextServerSeed
	}

	return rec.Session, nil
}

func (s *RedisService) DeleteSession(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf(KeySession, sessionID)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisService) CheckRateLimit(ctx context.Context, sessionID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, sessionID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, sessionID, action string) error {
	key := fmt.Sprintf(KeyRateLimit, sessionID, action)
	return s.client.Del(ctx, key).Err()
}
