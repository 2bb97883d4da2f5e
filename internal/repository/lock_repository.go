package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockHeld is returned when another holder owns the lock.
	ErrLockHeld = errors.New("lock already held")
	// ErrLockLost is returned by Extend when the token no longer owns the lock.
	ErrLockLost = errors.New("lock no longer owned")
)

const lockPrefix = "sed:lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

type localLock struct {
	token   string
	expires time.Time
}

// AccountLockRepository guarantees one portal operation per login. It uses
// Redis when a client is configured and an in-process table otherwise.
type AccountLockRepository struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	local map[string]localLock
	now   func() time.Time
}

// NewAccountLockRepository builds the lock store. client may be nil.
func NewAccountLockRepository(client *redis.Client, ttl time.Duration) *AccountLockRepository {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &AccountLockRepository{
		client: client,
		ttl:    ttl,
		local:  make(map[string]localLock),
		now:    time.Now,
	}
}

// Acquire takes the lock for login and returns the token needed to release it.
func (r *AccountLockRepository) Acquire(ctx context.Context, login string) (string, error) {
	token := uuid.NewString()
	key := lockPrefix + login

	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if held, ok := r.local[key]; ok && r.now().Before(held.expires) {
			return "", ErrLockHeld
		}
		r.local[key] = localLock{token: token, expires: r.now().Add(r.ttl)}
		return token, nil
	}

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// Release frees the lock if token still owns it.
func (r *AccountLockRepository) Release(ctx context.Context, login, token string) error {
	key := lockPrefix + login

	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if held, ok := r.local[key]; ok && held.token == token {
			delete(r.local, key)
		}
		return nil
	}

	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}

// TTL is the lifetime granted by Acquire and by each Extend.
func (r *AccountLockRepository) TTL() time.Duration {
	return r.ttl
}

// Extend pushes the expiry of a lock still owned by token a full TTL ahead.
func (r *AccountLockRepository) Extend(ctx context.Context, login, token string) error {
	key := lockPrefix + login

	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		held, ok := r.local[key]
		if !ok || held.token != token || !r.now().Before(held.expires) {
			return ErrLockLost
		}
		held.expires = r.now().Add(r.ttl)
		r.local[key] = held
		return nil
	}

	n, err := extendScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("redis extend %s: %w", key, err)
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}
