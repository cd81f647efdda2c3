package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dice-game-backend/internal/fair"
	"dice-game-backend/internal/models"
	"dice-game-backend/internal/services"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*models.Session)}
}

func (s *memStore) SaveSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return session, nil
}

type memPending struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemPending() *memPending {
	return &memPending{counts: make(map[string]int64)}
}

func (p *memPending) CountPending(ctx context.Context, seedPairID string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[seedPairID], nil
}

func newTestManager() (*services.RotationManager, *memStore, *memPending) {
	store := newMemStore()
	pending := newMemPending()
	return services.NewRotationManager(store, pending, 2*time.Second), store, pending
}

func TestCreateSession(t *testing.T) {
	rm, _, _ := newTestManager()
	ctx := context.Background()

	session, err := rm.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	if session.Current == nil || session.Next == nil {
		t.Fatal("session must commit both current and next pairs")
	}
	if session.Current.State != models.SeedStateActive {
		t.Errorf("current pair state = %s, want active", session.Current.State)
	}
	if session.Current.Nonce != 0 {
		t.Errorf("fresh pair nonce = %d, want 0", session.Current.Nonce)
	}
	if session.Current.ClientSeed == "" {
		t.Error("session must start with a default client seed")
	}
	if session.Current.ServerSeedHash == session.Next.ServerSeedHash {
		t.Error("current and next pairs must have distinct commitments")
	}
	if fair.HashSeed(session.Current.ServerSeed) != session.Current.ServerSeedHash {
		t.Error("published hash does not match server seed")
	}
}

func TestNonceMonotonicSequential(t *testing.T) {
	rm, _, _ := newTestManager()
	ctx := context.Background()

	session, err := rm.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	for want := int64(0); want < 10; want++ {
		_, nonce, err := rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
			return nil
		})
		if err != nil {
			t.Fatalf("IssueNonce() error at %d: %v", want, err)
		}
		if nonce != want {
			t.Fatalf("nonce = %d, want %d", nonce, want)
		}
	}
}

// Two concurrent bets must never get the same nonce, and no nonce may be
// skipped under non-failure conditions.
func TestNonceMonotonicConcurrent(t *testing.T) {
	rm, _, _ := newTestManager()
	ctx := context.Background()

	session, err := rm.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	const n = 50
	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, nonce, err := rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
				return nil
			})
			if err != nil {
				t.Errorf("IssueNonce() error: %v", err)
				return
			}
			mu.Lock()
			if seen[nonce] {
				t.Errorf("nonce %d issued twice", nonce)
			}
			seen[nonce] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	for i := int64(0); i < n; i++ {
		if !seen[i] {
			t.Errorf("nonce %d never issued", i)
		}
	}
}

// If the durable commit fails, the nonce is not consumed.
func TestIssueNonceCommitFailure(t *testing.T) {
	rm, _, _ := newTestManager()
	ctx := context.Background()

	session, _ := rm.CreateSession(ctx)

	wantErr := errors.New("insert failed")
	_, _, err := rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("IssueNonce() error = %v, want commit error", err)
	}

	_, nonce, err := rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
		return nil
	})
	if err != nil {
		t.Fatalf("IssueNonce() error: %v", err)
	}
	if nonce != 0 {
		t.Errorf("nonce after failed commit = %d, want 0 (unconsumed)", nonce)
	}
}

func TestIssueNonceRequiresActivePair(t *testing.T) {
	rm, store, _ := newTestManager()
	ctx := context.Background()

	session, _ := rm.CreateSession(ctx)
	session.Current.State = models.SeedStateRetiring
	store.SaveSession(ctx, session)

	_, _, err := rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
		return nil
	})
	if !errors.Is(err, fair.ErrSeedNotActive) {
		t.Fatalf("IssueNonce() error = %v, want ErrSeedNotActive", err)
	}
}

func TestLockTimeout(t *testing.T) {
	store := newMemStore()
	pending := newMemPending()
	rm := services.NewRotationManager(store, pending, 50*time.Millisecond)
	ctx := context.Background()

	session, _ := rm.CreateSession(ctx)

	blocked := make(chan struct{})
	release := make(chan struct{})

	go func() {
		rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
			close(blocked)
			<-release
			return nil
		})
	}()

	<-blocked
	_, _, err := rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
		return nil
	})
	close(release)

	if !errors.Is(err, fair.ErrLockTimeout) {
		t.Fatalf("IssueNonce() under contention = %v, want ErrLockTimeout", err)
	}
}

func TestSetClientSeedBeforeBets(t *testing.T) {
	rm, _, _ := newTestManager()
	ctx := context.Background()

	session, _ := rm.CreateSession(ctx)
	pairID := session.Current.ID

	updated, revealed, err := rm.SetClientSeed(ctx, session.ID, "my-lucky-seed")
	if err != nil {
		t.Fatalf("SetClientSeed() error: %v", err)
	}
	if revealed != nil {
		t.Error("unused pair must not rotate on client seed change")
	}
	if updated.Current.ID != pairID {
		t.Error("unused pair must stay current")
	}
	if updated.Current.ClientSeed != "my-lucky-seed" {
		t.Errorf("client seed = %s, want my-lucky-seed", updated.Current.ClientSeed)
	}
}

func TestSetClientSeedAfterBetsRotates(t *testing.T) {
	rm, _, _ := newTestManager()
	ctx := context.Background()

	session, _ := rm.CreateSession(ctx)
	oldPair := session.Current
	oldNextHash := session.Next.ServerSeedHash

	if _, _, err := rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
		return nil
	}); err != nil {
		t.Fatalf("IssueNonce() error: %v", err)
	}

	updated, revealed, err := rm.SetClientSeed(ctx, session.ID, "fresh-seed")
	if err != nil {
		t.Fatalf("SetClientSeed() error: %v", err)
	}

	if revealed == nil {
		t.Fatal("used pair must rotate and reveal on client seed change")
	}
	if revealed.ServerSeed != oldPair.ServerSeed {
		t.Error("revealed seed does not match the retired pair")
	}
	if fair.HashSeed(revealed.ServerSeed) != revealed.ServerSeedHash {
		t.Error("revealed seed fails its own commitment")
	}
	if revealed.NonceMax != 1 {
		t.Errorf("nonce range = %d, want 1", revealed.NonceMax)
	}

	// Promotion: the previously published next hash is now current.
	if updated.Current.ServerSeedHash != oldNextHash {
		t.Error("promoted pair does not match the published next commitment")
	}
	if updated.Current.ClientSeed != "fresh-seed" {
		t.Errorf("promoted pair client seed = %s", updated.Current.ClientSeed)
	}
	if updated.Next.ServerSeedHash == oldNextHash {
		t.Error("a fresh next pair must be committed after rotation")
	}
}

func TestRotationBlockedByPendingBets(t *testing.T) {
	rm, store, pending := newTestManager()
	ctx := context.Background()

	session, _ := rm.CreateSession(ctx)
	pending.mu.Lock()
	pending.counts[session.Current.ID] = 1
	pending.mu.Unlock()

	_, _, err := rm.Reveal(ctx, session.ID)
	if !errors.Is(err, fair.ErrInvalidState) {
		t.Fatalf("Reveal() with pending bets = %v, want ErrInvalidState", err)
	}

	// The pair went retiring before the pending check, so no new bets land on
	// it while finalization waits.
	stored, _ := store.GetSession(ctx, session.ID)
	if stored.Current.State != models.SeedStateRetiring {
		t.Errorf("pair state = %s, want retiring", stored.Current.State)
	}

	_, _, err = rm.IssueNonce(ctx, session.ID, func(pair *models.SeedPair, n int64) error {
		return nil
	})
	if !errors.Is(err, fair.ErrSeedNotActive) {
		t.Fatalf("IssueNonce() on retiring pair = %v, want ErrSeedNotActive", err)
	}

	// Once the pending bet settles, finalization goes through.
	pending.mu.Lock()
	pending.counts[session.Current.ID] = 0
	pending.mu.Unlock()

	_, revealed, err := rm.Reveal(ctx, session.ID)
	if err != nil {
		t.Fatalf("Reveal() after settlement error: %v", err)
	}
	if revealed == nil {
		t.Fatal("expected revealed seed")
	}
}

func TestRevealKeepsClientSeed(t *testing.T) {
	rm, _, _ := newTestManager()
	ctx := context.Background()

	session, _ := rm.CreateSession(ctx)
	clientSeed := session.Current.ClientSeed

	updated, revealed, err := rm.Reveal(ctx, session.ID)
	if err != nil {
		t.Fatalf("Reveal() error: %v", err)
	}
	if revealed.ClientSeed != clientSeed {
		t.Error("revealed record must carry the pair's client seed")
	}
	if updated.Current.ClientSeed != clientSeed {
		t.Error("promoted pair must keep the session's client seed")
	}
}
