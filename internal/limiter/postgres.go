package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps failure counters in the auth_failures table so every server
// instance shares them.
type PG struct {
	q Querier
	p Policy
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(q Querier, p Policy) *PG {
	return &PG{q: q, p: p}
}

func (l *PG) Allow(ctx context.Context, key []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_failures WHERE client_hash=$1`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, key).Scan(&blockedUntil)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, err
	}
	if wait := time.Until(blockedUntil); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

func (l *PG) Failure(ctx context.Context, key []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO auth_failures (client_hash, fail_count, blocked_until, updated_at)
VALUES ($1, 1, 'epoch', now())
ON CONFLICT (client_hash) DO UPDATE
SET
  fail_count = CASE WHEN now() - auth_failures.updated_at > $2::interval THEN 1 ELSE auth_failures.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.q.QueryRow(ctx, q, key, l.p.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.p.MaxFails {
		return false, 0, nil
	}
	const upd = `UPDATE auth_failures SET blocked_until=$2 WHERE client_hash=$1`
	if _, err := l.q.Exec(ctx, upd, key, time.Now().Add(l.p.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.p.BlockFor, nil
}
