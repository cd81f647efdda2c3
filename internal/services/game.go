package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dice-game-backend/internal/config"
	"dice-game-backend/internal/fair"
	"dice-game-backend/internal/metrics"
	"dice-game-backend/internal/models"

	"go.uber.org/zap"
)

// BetLog is the append-only settlement log keyed by (seed_pair_id, nonce).
type BetLog interface {
	InsertPending(ctx context.Context, result *models.BetResult) error
	MarkSettled(ctx context.Context, result *models.BetResult) error
	CountPending(ctx context.Context, seedPairID string) (int64, error)
	History(ctx context.Context, sessionID string, limit int) ([]*models.BetResult, error)
}

// GameService ties the protocol core to its collaborators: the rotation
// manager owns seed state, the bet log makes nonce consumption durable, and
// settlement fan-out (ledger events, live feed) is best-effort.
type GameService struct {
	rotation    *RotationManager
	redis       *RedisService
	betLog      BetLog
	publisher   SettlementPublisher
	broadcaster Broadcaster
	logger      *zap.Logger
	cfg         *config.Config
}

func NewGameService(
	rotation *RotationManager,
	redis *RedisService,
	betLog BetLog,
	publisher SettlementPublisher,
	logger *zap.Logger,
	cfg *config.Config,
) *GameService {
	return &GameService{
		rotation:  rotation,
		redis:     redis,
		betLog:    betLog,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// SetBroadcaster wires the live feed after construction; the websocket hub
// needs the service and the service needs the hub.
func (gs *GameService) SetBroadcaster(b Broadcaster) {
	gs.broadcaster = b
}

func (gs *GameService) CreateSession(ctx context.Context) (*models.Session, error) {
	return gs.rotation.CreateSession(ctx)
}

func (gs *GameService) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	return gs.rotation.Session(ctx, sessionID)
}

// validateTableLimits checks the configured table bounds on top of the
// protocol-level BetRequest validation.
func (gs *GameService) validateTableLimits(req *models.BetRequest) error {
	if req.BetAmount < gs.cfg.MinBet || req.BetAmount > gs.cfg.MaxBet {
		return fmt.Errorf("%w: bet amount %f outside [%f, %f]",
			fair.ErrInvalidBet, req.BetAmount, gs.cfg.MinBet, gs.cfg.MaxBet)
	}
	if req.TargetPercent < gs.cfg.MinTarget || req.TargetPercent > gs.cfg.MaxTarget {
		return fmt.Errorf("%w: target %f outside [%f, %f]",
			fair.ErrInvalidBet, req.TargetPercent, gs.cfg.MinTarget, gs.cfg.MaxTarget)
	}

	winChance := fair.WinChance(req.TargetPercent, req.Direction)
	potential := req.BetAmount * fair.Multiplier(winChance, gs.cfg.RTP)
	if gs.cfg.MaxWin > 0 && potential > gs.cfg.MaxWin {
		return fmt.Errorf("%w: potential win %f exceeds max win %f",
			fair.ErrInvalidBet, potential, gs.cfg.MaxWin)
	}

	return nil
}

// PlaceBet derives, resolves and records one bet. The balance check and the
// payout application belong to the external account service; this only
// produces the settled record.
//
// The pending row is inserted inside the nonce critical section, so every
// consumed nonce has a row. A crash before MarkSettled leaves the row
// pending, and recovery voids it instead of reusing the nonce.
func (gs *GameService) PlaceBet(ctx context.Context, sessionID string, req *models.BetRequest) (*models.BetResult, *models.Session, error) {
	if err := req.Validate(); err != nil {
		metrics.BetsRejected.Inc()
		return nil, nil, fmt.Errorf("%w: %v", fair.ErrInvalidBet, err)
	}
	if err := gs.validateTableLimits(req); err != nil {
		metrics.BetsRejected.Inc()
		return nil, nil, err
	}

	allowed, err := gs.redis.CheckRateLimit(ctx, sessionID, "bet", gs.cfg.BetRateLimit, time.Minute)
	if err != nil {
		return nil, nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		return nil, nil, fmt.Errorf("bet rate limit exceeded")
	}

	// A client seed supplied with the bet replaces the session's seed first;
	// if the current pair already has bets this rotates it out.
	if req.ClientSeed != "" {
		session, err := gs.rotation.Session(ctx, sessionID)
		if err != nil {
			return nil, nil, err
		}
		if session.Current != nil && session.Current.ClientSeed != req.ClientSeed {
			if _, _, err := gs.rotation.SetClientSeed(ctx, sessionID, req.ClientSeed); err != nil {
				return nil, nil, err
			}
		}
	}

	result := &models.BetResult{
		ID:            models.GenerateBetID(),
		SessionID:     sessionID,
		Direction:     req.Direction,
		TargetPercent: req.TargetPercent,
		BetAmount:     req.BetAmount,
		Status:        models.BetStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	start := time.Now()
	session, nonce, err := gs.rotation.IssueNonce(ctx, sessionID, func(pair *models.SeedPair, nonce int64) error {
		result.SeedPairID = pair.ID
		result.Nonce = nonce
		result.ClientSeed = pair.ClientSeed
		return gs.betLog.InsertPending(ctx, result)
	})
	if err != nil {
		if errors.Is(err, fair.ErrLockTimeout) {
			metrics.NonceLockTimeouts.Inc()
		}
		return nil, nil, err
	}
	metrics.BetsPlaced.Inc()

	pair := session.Current

	roll, err := fair.Derive(pair.ServerSeed, result.ClientSeed, nonce)
	if err != nil {
		// Derivation inputs come from our own state; this is a bug, not a
		// player error. The pending row stays for recovery to void.
		gs.logger.Error("derivation failed on issued nonce",
			zap.String("seed_pair_id", pair.ID),
			zap.Int64("nonce", nonce),
			zap.Error(err))
		return nil, nil, err
	}

	outcome, err := fair.Resolve(req, roll, gs.cfg.RTP)
	if err != nil {
		return nil, nil, err
	}

	result.Roll = outcome.Roll
	result.WinChance = outcome.WinChance
	result.Multiplier = outcome.Multiplier
	result.IsWin = outcome.IsWin
	result.Payout = outcome.Payout
	result.Status = models.BetStatusSettled

	if err := gs.betLog.MarkSettled(ctx, result); err != nil {
		return nil, nil, fmt.Errorf("settle bet %s: %w", result.ID, err)
	}
	metrics.SettleDuration.Observe(time.Since(start).Seconds())

	if result.IsWin {
		metrics.BetsSettled.WithLabelValues("win").Inc()
	} else {
		metrics.BetsSettled.WithLabelValues("loss").Inc()
	}

	gs.fanOutSettlement(ctx, result)

	return result, session, nil
}

// fanOutSettlement notifies downstream consumers. Failures are logged, never
// surfaced: the bet is settled and logged regardless.
func (gs *GameService) fanOutSettlement(ctx context.Context, result *models.BetResult) {
	if gs.publisher != nil {
		if err := gs.publisher.PublishBetSettled(ctx, result); err != nil {
			gs.logger.Warn("failed to publish settlement event",
				zap.String("bet_id", result.ID),
				zap.Error(err))
		}
	}

	if gs.broadcaster != nil {
		gs.broadcaster.BroadcastBetSettled(result)
	}
}

func (gs *GameService) History(ctx context.Context, sessionID string, limit int) ([]*models.BetResult, error) {
	return gs.betLog.History(ctx, sessionID, limit)
}

func (gs *GameService) SetClientSeed(ctx context.Context, sessionID, clientSeed string) (*models.Session, *models.RevealedSeed, error) {
	session, revealed, err := gs.rotation.SetClientSeed(ctx, sessionID, clientSeed)
	if err == nil && revealed != nil {
		metrics.SeedRotations.Inc()
	}
	return session, revealed, err
}

func (gs *GameService) RevealSeedPair(ctx context.Context, sessionID string) (*models.Session, *models.RevealedSeed, error) {
	session, revealed, err := gs.rotation.Reveal(ctx, sessionID)
	if err == nil {
		metrics.SeedRotations.Inc()
	}
	return session, revealed, err
}

// VerifyBet is the public stateless check; anyone holding the disclosed
// values can run it.
func (gs *GameService) VerifyBet(serverSeed, serverSeedHash, clientSeed string, nonce int64, claimedRoll float64) models.VerificationResult {
	result := fair.Verify(serverSeed, serverSeedHash, clientSeed, nonce, claimedRoll)
	metrics.Verifications.WithLabelValues(fmt.Sprintf("%t", result.Valid)).Inc()
	return result
}

// MultiplierQuote is the pure, re-enterable query behind the UI's live
// multiplier display.
func (gs *GameService) MultiplierQuote(targetPercent float64, direction models.Direction, amount float64) (winChance, multiplier, potentialWin float64) {
	winChance = fair.WinChance(targetPercent, direction)
	multiplier = fair.Multiplier(winChance, gs.cfg.RTP)
	if amount > 0 {
		potentialWin = fair.Round6(amount * multiplier)
	}
	return winChance, multiplier, potentialWin
}

func (gs *GameService) GameConfig() models.GameConfig {
	return models.GameConfig{
		RTP:       gs.cfg.RTP,
		MinBet:    gs.cfg.MinBet,
		MaxBet:    gs.cfg.MaxBet,
		MaxWin:    gs.cfg.MaxWin,
		MinTarget: gs.cfg.MinTarget,
		MaxTarget: gs.cfg.MaxTarget,
		Precision: gs.cfg.Precision,
		Currency:  gs.cfg.Currency,
	}
}
