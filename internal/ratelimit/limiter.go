package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Operation names a rate-limited operation. Counters are kept per
// (operation, caller key) pair.
type Operation string

const (
	OpRegister             Operation = "register"
	OpLogin                Operation = "login"
	OpVerifyOTP            Operation = "verify-otp"
	OpResendOTP            Operation = "resend-otp"
	OpPasswordResetRequest Operation = "password-reset-request"
)

// Policy is a fixed-window budget for one operation.
type Policy struct {
	Window time.Duration
	Max    int64
}

// DefaultPolicies is the reference policy. Tune per deployment.
var DefaultPolicies = map[Operation]Policy{
	OpRegister:             {Window: time.Hour, Max: 5},
	OpLogin:                {Window: 10 * time.Minute, Max: 5},
	OpVerifyOTP:            {Window: 10 * time.Minute, Max: 5},
	OpResendOTP:            {Window: 5 * time.Minute, Max: 100},
	OpPasswordResetRequest: {Window: 10 * time.Minute, Max: 3},
}

// Limiter enforces per-operation fixed-window rate limits using Redis
// counters. Counters are best-effort shared state: an off-by-one under a
// racing INCR is acceptable, a store outage is surfaced as ErrUnavailable.
type Limiter struct {
	redis    redis.UniversalClient
	policies map[Operation]Policy
}

// New creates a [Limiter] backed by the given Redis client. A nil policies
// map selects DefaultPolicies.
func New(redisClient redis.UniversalClient, policies map[Operation]Policy) *Limiter {
	if policies == nil {
		policies = DefaultPolicies
	}

	return &Limiter{
		redis:    redisClient,
		policies: policies,
	}
}

// Allow records one attempt at op by the caller identified by key and
// returns ErrRateLimited if the window budget is exceeded. Operations
// without a policy are unlimited.
func (l *Limiter) Allow(ctx context.Context, op Operation, key string) error {
	policy, ok := l.policies[op]
	if !ok {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, counterKey(op, key), policy.Window)
	if err != nil {
		return err
	}
	if count > policy.Max {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return count, nil
}

func counterKey(op Operation, key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", op, key)
}
