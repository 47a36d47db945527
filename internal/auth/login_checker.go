package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/2beens/prtracker/internal/telemetry/tracing"
)

// LoginChecker resolves session tokens to user ids.
type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	now         func() time.Time
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		now:         time.Now,
	}
}

// CurrentUser returns the id of the user owning the session token.
func (c *LoginChecker) CurrentUser(ctx context.Context, token string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.current_user")
	defer tracing.EndSpanWithErrCheck(span, &err)

	val, err := c.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}

	createdAt, userID, err := parseSessionValue(val)
	if err != nil {
		return "", err
	}

	if c.now().Sub(createdAt) > c.ttl {
		return "", ErrSessionExpired
	}

	return userID, nil
}
