package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_IgnoresPort(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Key("10.0.0.1:5000"), Key("10.0.0.1:6000"))
	assert.NotEqual(t, Key("10.0.0.1:5000"), Key("10.0.0.2:5000"))
	assert.Len(t, Key("bufconn"), 32)
}

func TestMemory_BlocksAfterMaxFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(Policy{Window: time.Minute, MaxFails: 3, BlockFor: 10 * time.Minute})
	m.now = func() time.Time { return now }
	key := Key("1.2.3.4:1")

	for i := 0; i < 2; i++ {
		blocked, _, err := m.Failure(ctx, key)
		require.NoError(t, err)
		assert.False(t, blocked)
	}
	ok, _, err := m.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	blocked, wait, err := m.Failure(ctx, key)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, 10*time.Minute, wait)

	now = now.Add(time.Minute)
	ok, wait, err = m.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 9*time.Minute, wait)

	now = now.Add(10 * time.Minute)
	ok, _, _ = m.Allow(ctx, key)
	assert.True(t, ok)
}

func TestMemory_WindowResetsCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now()
	m := NewMemory(Policy{Window: time.Minute, MaxFails: 2, BlockFor: time.Minute})
	m.now = func() time.Time { return now }
	key := Key("a")

	_, _, _ = m.Failure(ctx, key)
	now = now.Add(2 * time.Minute)
	blocked, _, err := m.Failure(ctx, key)
	require.NoError(t, err)
	assert.False(t, blocked, "old failure fell out of the window")
}

func TestPG_Allow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	l := NewPG(mock, DefaultPolicy)
	key := Key("x")

	mock.ExpectQuery(`SELECT blocked_until FROM auth_failures`).WithArgs(key).
		WillReturnError(pgx.ErrNoRows)
	ok, _, err := l.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`SELECT blocked_until FROM auth_failures`).WithArgs(key).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(time.Now().Add(time.Hour)))
	ok, wait, err := l.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, wait, 59*time.Minute)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_FailureBlocksAtThreshold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	l := NewPG(mock, Policy{Window: time.Minute, MaxFails: 2, BlockFor: time.Hour})
	key := Key("y")

	mock.ExpectQuery(`INSERT INTO auth_failures`).WithArgs(key, time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(1))
	blocked, _, err := l.Failure(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, blocked)

	mock.ExpectQuery(`INSERT INTO auth_failures`).WithArgs(key, time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(2))
	mock.ExpectExec(`UPDATE auth_failures SET blocked_until`).WithArgs(key, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	blocked, wait, err := l.Failure(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, time.Hour, wait)

	require.NoError(t, mock.ExpectationsWereMet())
}
