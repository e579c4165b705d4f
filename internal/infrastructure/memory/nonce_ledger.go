// Package memory provides in-process fallbacks for single-instance
// deployments where Redis is not configured.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/internal/domain/service"
)

// nonceEntry is one live token.
type nonceEntry struct {
	tenant    string
	expiresAt time.Time
}

// memoryNonceLedger is a mutex-guarded map. Issue, Consume and Sweep hold the
// same lock, so a token can never be consumed twice even under concurrent
// creation calls. Not suitable for multi-instance deployment.
type memoryNonceLedger struct {
	mu      sync.Mutex
	entries map[string]nonceEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewNonceLedger creates an in-memory nonce ledger with the given TTL.
func NewNonceLedger(ttl time.Duration) service.NonceLedger {
	return &memoryNonceLedger{
		entries: make(map[string]nonceEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewNonceLedgerWithClock is NewNonceLedger with an injectable clock for tests.
func NewNonceLedgerWithClock(ttl time.Duration, now func() time.Time) service.NonceLedger {
	return &memoryNonceLedger{
		entries: make(map[string]nonceEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (l *memoryNonceLedger) Issue(ctx context.Context, name models.TenantName) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()
	l.entries[token] = nonceEntry{tenant: name.String(), expiresAt: l.now().Add(l.ttl)}
	return token, nil
}

func (l *memoryNonceLedger) Consume(ctx context.Context, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()

	entry, ok := l.entries[token]
	if !ok {
		return false, nil
	}
	delete(l.entries, token)
	if l.now().After(entry.expiresAt) {
		return false, nil
	}
	return true, nil
}

func (l *memoryNonceLedger) Sweep(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()
	return nil
}

func (l *memoryNonceLedger) sweepLocked() {
	now := l.now()
	for token, entry := range l.entries {
		if now.After(entry.expiresAt) {
			delete(l.entries, token)
		}
	}
}
