package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

func TestAccountLockLocalFallback(t *testing.T) {
	repo := NewAccountLockRepository(nil, time.Minute)
	ctx := context.Background()

	token, err := repo.Acquire(ctx, "rg123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = repo.Acquire(ctx, "rg123")
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := repo.Acquire(ctx, "rg456")
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	require.NoError(t, repo.Release(ctx, "rg123", "not-the-owner"))
	_, err = repo.Acquire(ctx, "rg123")
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, repo.Release(ctx, "rg123", token))
	_, err = repo.Acquire(ctx, "rg123")
	assert.NoError(t, err)
}

func TestAccountLockLocalExpiry(t *testing.T) {
	repo := NewAccountLockRepository(nil, time.Minute)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	_, err := repo.Acquire(context.Background(), "rg123")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = repo.Acquire(context.Background(), "rg123")
	assert.NoError(t, err)
}

func TestAccountLockRedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	repo := NewAccountLockRepository(client, time.Minute)

	_, err := repo.Acquire(context.Background(), "rg123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
}

func TestAccountLockLocalExtend(t *testing.T) {
	repo := NewAccountLockRepository(nil, time.Minute)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	token, err := repo.Acquire(ctx, "rg123")
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	require.NoError(t, repo.Extend(ctx, "rg123", token))
	assert.ErrorIs(t, repo.Extend(ctx, "rg123", "not-the-owner"), ErrLockLost)

	now = now.Add(50 * time.Second)
	_, err = repo.Acquire(ctx, "rg123")
	assert.ErrorIs(t, err, ErrLockHeld)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, repo.Extend(ctx, "rg123", token), ErrLockLost)
}

func TestRateLimitWithoutRedis(t *testing.T) {
	count, err := NewRateLimitRepository(nil).Hit(context.Background(), "u1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCacheWithoutRedis(t *testing.T) {
	repo := NewCacheRepository(nil, "")
	require.NoError(t, repo.Set(context.Background(), "k", map[string]int{"a": 1}, time.Minute))

	var out map[string]int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &out), appErrors.ErrCacheMiss)
}
