package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dice-game-backend/internal/models"

	_ "github.com/lib/pq"
)

// Postgres is the append-only bet log. Rows are keyed (seed_pair_id, nonce);
// the unique constraint is the last line of defense against nonce reuse.
// Settled and void rows are never updated again.
type Postgres struct{ db *sql.DB }

func Connect(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bet_results (
			id             TEXT PRIMARY KEY,
			session_id     TEXT NOT NULL,
			seed_pair_id   TEXT NOT NULL,
			nonce          BIGINT NOT NULL,
			direction      TEXT NOT NULL,
			target_percent DOUBLE PRECISION NOT NULL,
			roll           DOUBLE PRECISION,
			win_chance     DOUBLE PRECISION,
			multiplier     DOUBLE PRECISION,
			is_win         BOOLEAN,
			bet_amount     DOUBLE PRECISION NOT NULL,
			payout         DOUBLE PRECISION,
			client_seed    TEXT NOT NULL,
			status         TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			settled_at     TIMESTAMPTZ,
			UNIQUE (seed_pair_id, nonce)
		);
		CREATE INDEX IF NOT EXISTS idx_bet_results_session
			ON bet_results (session_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertPending records nonce consumption before settlement. Runs inside the
// nonce critical section, so a consumed nonce is always durable.
func (p *Postgres) InsertPending(ctx context.Context, r *models.BetResult) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bet_results
			(id, session_id, seed_pair_id, nonce, direction, target_percent,
			 bet_amount, client_seed, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.SessionID, r.SeedPairID, r.Nonce, r.Direction, r.TargetPercent,
		r.BetAmount, r.ClientSeed, models.BetStatusPending, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pending bet: %w", err)
	}
	return nil
}

// MarkSettled fills in the outcome. Only a pending row can transition.
func (p *Postgres) MarkSettled(ctx context.Context, r *models.BetResult) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bet_results
		SET roll=$1, win_chance=$2, multiplier=$3, is_win=$4, payout=$5,
		    status=$6, settled_at=$7
		WHERE id=$8 AND status=$9`,
		r.Roll, r.WinChance, r.Multiplier, r.IsWin, r.Payout,
		models.BetStatusSettled, time.Now().UTC(), r.ID, models.BetStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark bet settled: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("bet %s not pending", r.ID)
	}
	return nil
}

func (p *Postgres) CountPending(ctx context.Context, seedPairID string) (int64, error) {
	var n int64
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bet_results WHERE seed_pair_id=$1 AND status=$2`,
		seedPairID, models.BetStatusPending,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending bets: %w", err)
	}
	return n, nil
}

// VoidStalePending burns orphaned nonces: rows that stayed pending past the
// cutoff lost their settlement (crash between insert and settle). The gap in
// the nonce sequence stays visible and the nonce is never reused.
func (p *Postgres) VoidStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bet_results SET status=$1
		WHERE status=$2 AND created_at < $3`,
		models.BetStatusVoid, models.BetStatusPending, time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("void stale pending bets: %w", err)
	}
	return res.RowsAffected()
}

func (p *Postgres) History(ctx context.Context, sessionID string, limit int) ([]*models.BetResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, session_id, seed_pair_id, nonce, direction, target_percent,
		       COALESCE(roll, 0), COALESCE(win_chance, 0), COALESCE(multiplier, 0),
		       COALESCE(is_win, false), bet_amount, COALESCE(payout, 0),
		       client_seed, status, created_at
		FROM bet_results
		WHERE session_id=$1
		ORDER BY created_at DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query bet history: %w", err)
	}
	defer rows.Close()

	var results []*models.BetResult
	for rows.Next() {
		var r models.BetResult
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.SeedPairID, &r.Nonce, &r.Direction,
			&r.TargetPercent, &r.Roll, &r.WinChance, &r.Multiplier, &r.IsWin,
			&r.BetAmount, &r.Payout, &r.ClientSeed, &r.Status, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan bet row: %w", err)
		}
		results = append(results, &r)
	}

	return results, rows.Err()
}
