package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginFailurePrefix = "login_failures:"
	failureWindow      = 15 * time.Minute
	maxFailures        = 5
)

// LoginLimiter tracks consecutive failed login attempts per email in Redis
// and blocks further attempts once the threshold is reached. Counters expire
// after a fixed window, so a locked account frees itself without operator
// intervention.
type LoginLimiter struct {
	client *redis.Client
}

func NewLoginLimiter(client *redis.Client) *LoginLimiter {
	return &LoginLimiter{client: client}
}

func loginFailureKey(email string) string {
	return loginFailurePrefix + strings.ToLower(strings.TrimSpace(email))
}

// TooManyFailures reports whether the email has exceeded the failure
// threshold within the current window.
func (l *LoginLimiter) TooManyFailures(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := l.client.Get(ctx, loginFailureKey(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("login limiter get: %w", err)
	}
	return count >= maxFailures, nil
}

// RecordFailure increments the failure counter for the email. The expiry is
// set only when the key is first created, so the window is measured from the
// first failure in the streak.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	key := loginFailureKey(email)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("login limiter incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, failureWindow).Err(); err != nil {
			return fmt.Errorf("login limiter expire: %w", err)
		}
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := l.client.Del(ctx, loginFailureKey(email)).Err(); err != nil {
		return fmt.Errorf("login limiter reset: %w", err)
	}
	return nil
}
