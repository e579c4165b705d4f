package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/internal/domain/service"
)

const nonceKeyPrefix = "onboard:nonce:"

// redisNonceLedger is a Redis-backed implementation of the NonceLedger
// interface. Expiry is enforced server-side via TTL and consumption relies on
// GETDEL, so the single-use guarantee holds across gateway instances.
type redisNonceLedger struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewNonceLedger creates a Redis-backed nonce ledger with the given TTL.
func NewNonceLedger(client redis.UniversalClient, ttl time.Duration) service.NonceLedger {
	return &redisNonceLedger{client: client, ttl: ttl}
}

// Issue stores a fresh random token with the ledger TTL. The tenant name is
// kept as the value for diagnostics only.
func (l *redisNonceLedger) Issue(ctx context.Context, name models.TenantName) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := l.client.Set(ctx, nonceKeyPrefix+token, name.String(), l.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to record nonce: %w", err)
	}
	return token, nil
}

// Consume atomically removes the token. GETDEL returns redis.Nil for tokens
// that were never issued, already consumed, or expired.
func (l *redisNonceLedger) Consume(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	err := l.client.GetDel(ctx, nonceKeyPrefix+token).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return true, nil
}

// Sweep is a no-op: Redis expires keys server-side.
func (l *redisNonceLedger) Sweep(ctx context.Context) error {
	return nil
}

// generateToken returns a URL-safe token with 192 bits of entropy.
func generateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
