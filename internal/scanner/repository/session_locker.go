package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/tair/inventory-scanner/pkg/logger"
)

// ErrLockNotObtained is returned when the organization lock stays busy
var ErrLockNotObtained = errors.New("organization session lock not obtained")

// RedisSessionLocker uses a redis lock so that replicas agree on one creator
type RedisSessionLocker struct {
	client  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
}

// NewRedisSessionLocker creates a redis backed locker
func NewRedisSessionLocker(client redis.UniversalClient, ttl time.Duration) *RedisSessionLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisSessionLocker{
		client:  redislock.New(client),
		ttl:     ttl,
		backoff: 50 * time.Millisecond,
	}
}

func sessionLockKey(organizationID string) string {
	return "scanner:lock:session:" + organizationID
}

// Lock obtains the organization lock, retrying until the lock TTL elapses
func (l *RedisSessionLocker) Lock(ctx context.Context, organizationID string) (func(), error) {
	// Retry strategies carry a counter, so each attempt gets its own.
	retry := redislock.NoRetry()
	if l.backoff > 0 {
		retry = redislock.LimitRetry(redislock.LinearBackoff(l.backoff), int(l.ttl/l.backoff))
	}

	lock, err := l.client.Obtain(ctx, sessionLockKey(organizationID), l.ttl, &redislock.Options{
		RetryStrategy: retry,
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain session lock: %w", err)
	}

	return func() {
		// The caller's context may already be done, release must still run.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Logger.Warn().
				Err(err).
				Str("organization_id", organizationID).
				Msg("Failed to release session lock")
		}
	}, nil
}

// LocalSessionLocker serializes per organization inside one process
type LocalSessionLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalSessionLocker creates an in-process locker
func NewLocalSessionLocker() *LocalSessionLocker {
	return &LocalSessionLocker{locks: make(map[string]chan struct{})}
}

func (l *LocalSessionLocker) Lock(ctx context.Context, organizationID string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[organizationID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[organizationID] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
