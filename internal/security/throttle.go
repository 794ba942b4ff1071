package security

import (
	"context" // Context for Redis operations
	"errors"  // redis.Nil comparison
	"strings" // Key normalization
	"time"    // Window durations

	"github.com/redis/go-redis/v9" // Redis client
)

// LoginThrottle counts failed logins per account in Redis.
// A nil throttle, or one without a client, allows everything.
type LoginThrottle struct {
	rdb         *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginThrottle creates a throttle allowing maxAttempts failures per window
func NewLoginThrottle(rdb *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{rdb: rdb, maxAttempts: int64(maxAttempts), window: window}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.rdb != nil && t.maxAttempts > 0
}

func throttleKey(login string) string {
	return "login:failures:" + strings.ToLower(strings.TrimSpace(login))
}

// Allowed reports whether login may attempt authentication
func (t *LoginThrottle) Allowed(ctx context.Context, login string) (bool, error) {
	if !t.enabled() {
		return true, nil
	}
	n, err := t.rdb.Get(ctx, throttleKey(login)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil // No failures recorded
	}
	if err != nil {
		return true, err
	}
	return n < t.maxAttempts, nil
}

// RecordFailure increments the failure counter, starting the window on the first failure
func (t *LoginThrottle) RecordFailure(ctx context.Context, login string) error {
	if !t.enabled() {
		return nil
	}
	key := throttleKey(login)
	n, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return t.rdb.Expire(ctx, key, t.window).Err()
	}
	return nil
}

// Reset clears the counter after a successful login
func (t *LoginThrottle) Reset(ctx context.Context, login string) error {
	if !t.enabled() {
		return nil
	}
	return t.rdb.Del(ctx, throttleKey(login)).Err()
}
