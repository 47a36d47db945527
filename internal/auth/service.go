package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/pkg"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "prtracker-session||"
	tokensSetKey     = "prtracker-sessions"
	tokenLength      = 35
)

var (
	ErrWrongCredentials = fmt.Errorf("wrong email or password: %w", errvalues.ErrNotAuthenticated)
	ErrSessionNotFound  = fmt.Errorf("session not found: %w", errvalues.ErrNotAuthenticated)
	ErrSessionExpired   = fmt.Errorf("session expired: %w", errvalues.ErrNotAuthenticated)
	ErrEmailTaken       = fmt.Errorf("email already registered: %w", errvalues.ErrConflict)
	ErrAccountNotFound  = fmt.Errorf("account: %w", errvalues.ErrNotFound)
)

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type SessionEventType string

const (
	SessionStarted SessionEventType = "started"
	SessionEnded   SessionEventType = "ended"
	SessionExpired SessionEventType = "expired"
)

// SessionEvent is delivered to OnSessionChange subscribers.
type SessionEvent struct {
	Type   SessionEventType
	UserID string
	At     time.Time
}

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=auth

type accountsRepo interface {
	Create(ctx context.Context, account Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
}

type Service struct {
	accounts    accountsRepo
	redisClient *redis.Client
	ttl         time.Duration

	// injectable for unit and dev testing
	RandStringFunc func(s int) (string, error)
	NewIDFunc      func() string

	subscribersMu sync.RWMutex
	subscribers   []func(SessionEvent)
}

func NewAuthService(
	accounts accountsRepo,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		accounts:       accounts,
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
		NewIDFunc:      uuid.NewString,
	}
}

// OnSessionChange registers fn to be called on every login, logout and
// session expiry. Callbacks run synchronously and must not block.
func (as *Service) OnSessionChange(fn func(SessionEvent)) {
	as.subscribersMu.Lock()
	defer as.subscribersMu.Unlock()
	as.subscribers = append(as.subscribers, fn)
}

func (as *Service) notify(event SessionEvent) {
	as.subscribersMu.RLock()
	defer as.subscribersMu.RUnlock()
	for _, fn := range as.subscribers {
		fn(event)
	}
}

// Register creates the account together with a blank, not yet onboarded profile.
func (as *Service) Register(ctx context.Context, creds Credentials, createdAt time.Time) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.register")
	defer tracing.EndSpanWithErrCheck(span, &err)

	passwordHash, err := pkg.HashPassword(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := Account{
		ID:           as.NewIDFunc(),
		Email:        strings.ToLower(strings.TrimSpace(creds.Email)),
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}
	if err := as.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	return &account, nil
}

func (as *Service) Login(ctx context.Context, creds Credentials, createdAt time.Time) (token string, userID string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer tracing.EndSpanWithErrCheck(span, &err)

	account, err := as.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		if errors.Is(err, errvalues.ErrNotFound) {
			return "", "", ErrWrongCredentials
		}
		return "", "", fmt.Errorf("get account: %w", err)
	}

	if !pkg.CheckPasswordHash(creds.Password, account.PasswordHash) {
		return "", "", ErrWrongCredentials
	}

	token, err = as.RandStringFunc(tokenLength)
	if err != nil {
		return "", "", err
	}

	sessionKey := sessionKeyPrefix + token
	if err := as.redisClient.Set(ctx, sessionKey, sessionValue(createdAt, account.ID), 0).Err(); err != nil {
		return "", "", err
	}

	// add token to list of sessions
	if err := as.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", "", err
	}

	as.notify(SessionEvent{Type: SessionStarted, UserID: account.ID, At: createdAt})

	return token, account.ID, nil
}

// Logout removes the session. Returns false if the session did not exist.
func (as *Service) Logout(ctx context.Context, token string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.logout")
	defer tracing.EndSpanWithErrCheck(span, &err)

	sessionKey := sessionKeyPrefix + token
	val, err := as.redisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	_, userID, err := parseSessionValue(val)
	if err != nil {
		return false, err
	}

	if err := as.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return false, err
	}

	// remove token from the list of sessions
	if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	as.notify(SessionEvent{Type: SessionEnded, UserID: userID, At: time.Now()})

	return true, nil
}

func (as *Service) Account(ctx context.Context, userID string) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.account")
	defer tracing.EndSpanWithErrCheck(span, &err)

	account, err := as.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context, now time.Time) {
	sessionTokens, err := as.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		log.Debugln("auth service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		val, err := as.redisClient.Get(ctx, sessionKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Errorf("auth service, scan and clean, get session: %s", err)
			continue
		}

		var userID string
		if err == nil {
			var createdAt time.Time
			createdAt, userID, err = parseSessionValue(val)
			if err == nil && now.Sub(createdAt) <= as.ttl {
				continue
			}
		}

		// expired, dangling or malformed
		if err := as.redisClient.Del(ctx, sessionKey).Err(); err != nil {
			log.Errorf("auth service, clean session: %s", err)
			continue
		}
		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("auth service, clean session from set: %s", err)
			continue
		}

		if userID != "" {
			as.notify(SessionEvent{Type: SessionExpired, UserID: userID, At: now})
		}
	}
}

func sessionValue(createdAt time.Time, userID string) string {
	return fmt.Sprintf("%d|%s", createdAt.Unix(), userID)
}

func parseSessionValue(val string) (createdAt time.Time, userID string, err error) {
	createdAtStr, userID, found := strings.Cut(val, "|")
	if !found || userID == "" {
		return time.Time{}, "", fmt.Errorf("malformed session value")
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed session timestamp: %w", err)
	}
	return time.Unix(createdAtUnix, 0), userID, nil
}
