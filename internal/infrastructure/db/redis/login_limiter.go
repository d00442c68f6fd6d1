package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gems-crm/backend/internal/core/ports"
)

const (
	defaultMaxAttempts = 5
	defaultLockout     = 15 * time.Minute
)

// LoginLimiter counts login attempts per email in Redis. Every attempt is
// counted before credentials are checked, so concurrent guesses cannot slip
// past the limit. The window starts at the first attempt and a successful
// login clears it.
// Key format: login_attempts:<email>
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	lockout     time.Duration
}

var _ ports.LoginLimiter = (*LoginLimiter)(nil)

func NewLoginLimiter(client *redis.Client, maxAttempts int, lockout time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = defaultLockout
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), lockout: lockout}
}

// attemptScript increments the counter and gives it a TTL whenever it has
// none, in one atomic step. A key can therefore never outlive the lockout.
var attemptScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Attempt records one attempt for email and reports whether it is within the limit.
func (l *LoginLimiter) Attempt(ctx context.Context, email string) (bool, error) {
	n, err := attemptScript.Run(ctx, l.client, []string{l.key(email)}, l.lockout.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("login limiter attempt: %w", err)
	}
	return n <= l.maxAttempts, nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	return l.client.Del(ctx, l.key(email)).Err()
}

func (l *LoginLimiter) key(email string) string {
	return "login_attempts:" + email
}
