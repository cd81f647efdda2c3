package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dice-game-backend/internal/fair"
	"dice-game-backend/internal/models"
)

// SessionStore persists session records between calls.
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
}

// PendingCounter reports unresolved bets for a seed pair. Finalizing a pair
// with pending bets is a protocol violation.
type PendingCounter interface {
	CountPending(ctx context.Context, seedPairID string) (int64, error)
}

// RotationManager owns the mutable parts of the protocol: per-session seed
// pair chains (current active pair plus a committed next pair) and the nonce
// counter on the active pair. All mutation happens under a per-session timed
// lock, so two concurrent bets can never consume the same nonce.
type RotationManager struct {
	store       SessionStore
	pending     PendingCounter
	lockTimeout time.Duration

	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewRotationManager(store SessionStore, pending PendingCounter, lockTimeout time.Duration) *RotationManager {
	return &RotationManager{
		store:       store,
		pending:     pending,
		lockTimeout: lockTimeout,
		locks:       make(map[string]chan struct{}),
	}
}

func (rm *RotationManager) lockFor(sessionID string) chan struct{} {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sem, ok := rm.locks[sessionID]
	if !ok {
		sem = make(chan struct{}, 1)
		rm.locks[sessionID] = sem
	}
	return sem
}

// acquire takes the session lock with a bounded wait. Contention on one
// session should be rare and short; there is deliberately no retry loop here.
func (rm *RotationManager) acquire(ctx context.Context, sessionID string) (func(), error) {
	sem := rm.lockFor(sessionID)

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-time.After(rm.lockTimeout):
		return nil, fmt.Errorf("session %s: %w", sessionID, fair.ErrLockTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newSeedPair() (*models.SeedPair, error) {
	serverSeed, err := fair.NewServerSeed()
	if err != nil {
		return nil, err
	}

	return &models.SeedPair{
		ID:             models.GenerateSeedPairID(),
		ServerSeed:     serverSeed,
		ServerSeedHash: fair.HashSeed(serverSeed),
		Nonce:          0,
		State:          models.SeedStateActive,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// CreateSession commits a current and a next seed pair and persists the
// session. The next pair's hash is published immediately so the player holds
// the commitment for the pair that follows rotation.
func (rm *RotationManager) CreateSession(ctx context.Context) (*models.Session, error) {
	current, err := newSeedPair()
	if err != nil {
		return nil, err
	}
	next, err := newSeedPair()
	if err != nil {
		return nil, err
	}

	clientSeed, err := fair.NewClientSeed()
	if err != nil {
		return nil, err
	}
	current.ClientSeed = clientSeed

	session := &models.Session{
		ID:        models.GenerateSessionID(),
		Current:   current,
		Next:      next,
		CreatedAt: time.Now().UTC(),
	}

	if err := rm.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (rm *RotationManager) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	return rm.store.GetSession(ctx, sessionID)
}

// IssueNonce atomically hands out the active pair's current nonce and
// advances the counter. commit runs inside the critical section and must make
// the nonce consumption durable (the pending bet row); if commit fails the
// counter is left untouched and the nonce is not consumed.
func (rm *RotationManager) IssueNonce(ctx context.Context, sessionID string, commit func(pair *models.SeedPair, nonce int64) error) (*models.Session, int64, error) {
	release, err := rm.acquire(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	session, err := rm.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}

	pair := session.Current
	if pair == nil || pair.State != models.SeedStateActive {
		return nil, 0, fmt.Errorf("session %s: %w", sessionID, fair.ErrSeedNotActive)
	}

	nonce := pair.Nonce
	if err := commit(pair, nonce); err != nil {
		return nil, 0, err
	}

	pair.Nonce++
	if err := rm.store.SaveSession(ctx, session); err != nil {
		// The pending row exists but the counter did not advance; recovery
		// voids the orphaned nonce from the log.
		return nil, 0, fmt.Errorf("persist nonce %d: %w", nonce, err)
	}

	return session, nonce, nil
}

// SetClientSeed changes the client seed. Before the first bet the seed is
// simply replaced on the active pair; once bets have been placed under it the
// pair's client seed is fixed, so the change forces a rotation and the old
// server seed is revealed.
func (rm *RotationManager) SetClientSeed(ctx context.Context, sessionID, clientSeed string) (*models.Session, *models.RevealedSeed, error) {
	if clientSeed == "" {
		return nil, nil, fmt.Errorf("%w: empty client seed", fair.ErrInvalidInput)
	}

	release, err := rm.acquire(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	session, err := rm.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	current := session.Current
	if current == nil || current.State == models.SeedStateRevealed {
		return nil, nil, fmt.Errorf("session %s: %w", sessionID, fair.ErrInvalidState)
	}

	if current.State == models.SeedStateActive && current.Nonce == 0 {
		current.ClientSeed = clientSeed
		if err := rm.store.SaveSession(ctx, session); err != nil {
			return nil, nil, err
		}
		return session, nil, nil
	}

	revealed, err := rm.rotateLocked(ctx, session, clientSeed)
	if err != nil {
		return nil, nil, err
	}
	return session, revealed, nil
}

// Reveal retires and finalizes the current pair, keeping the client seed for
// the promoted pair. Used on session end or explicit audit request.
func (rm *RotationManager) Reveal(ctx context.Context, sessionID string) (*models.Session, *models.RevealedSeed, error) {
	release, err := rm.acquire(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	session, err := rm.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if session.Current == nil {
		return nil, nil, fmt.Errorf("session %s: %w", sessionID, fair.ErrInvalidState)
	}

	revealed, err := rm.rotateLocked(ctx, session, session.Current.ClientSeed)
	if err != nil {
		return nil, nil, err
	}
	return session, revealed, nil
}

// rotateLocked walks the current pair ACTIVE -> RETIRING -> REVEALED, then
// promotes the next pair and commits a fresh next. Caller holds the session
// lock. The retiring state is persisted before finalization so a crash in
// between leaves the pair closed to new bets rather than active.
func (rm *RotationManager) rotateLocked(ctx context.Context, session *models.Session, clientSeed string) (*models.RevealedSeed, error) {
	current := session.Current

	if current.State == models.SeedStateRevealed {
		return nil, fmt.Errorf("pair %s already revealed: %w", current.ID, fair.ErrInvalidState)
	}

	if current.State == models.SeedStateActive {
		current.State = models.SeedStateRetiring
		if err := rm.store.SaveSession(ctx, session); err != nil {
			return nil, err
		}
	}

	pending, err := rm.pending.CountPending(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, fmt.Errorf("pair %s has %d unresolved bets: %w", current.ID, pending, fair.ErrInvalidState)
	}

	current.State = models.SeedStateRevealed
	current.RevealedAt = time.Now().UTC()

	revealed := &models.RevealedSeed{
		ServerSeed:     current.ServerSeed,
		ServerSeedHash: current.ServerSeedHash,
		ClientSeed:     current.ClientSeed,
		NonceMax:       current.Nonce,
	}

	next, err := newSeedPair()
	if err != nil {
		return nil, err
	}

	session.Current = session.Next
	session.Current.ClientSeed = clientSeed
	session.Next = next

	if err := rm.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	return revealed, nil
}
