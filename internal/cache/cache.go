// Package cache provides the time-bounded classification memo shared across
// classification passes, keyed by a stable fingerprint of field metadata.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/form-autofill/internal/types"
)

// DefaultTTL is how long a cached classification is served without a network call.
const DefaultTTL = 5 * time.Minute

// fingerprintOptions is how many option texts take part in a fingerprint.
const fingerprintOptions = 5

// Entry is one cached classification result.
type Entry struct {
	Candidates []types.Candidate `json:"candidates"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Store is a classification cache. Get only reports entries younger than the TTL.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, candidates []types.Candidate)
}

// Fingerprint builds the deterministic cache key for a field.
func Fingerprint(field types.FieldDescriptor) string {
	opts := field.Options
	if len(opts) > fingerprintOptions {
		opts = opts[:fingerprintOptions]
	}
	parts := []string{
		strings.TrimSpace(field.Label),
		field.Name,
		field.ID,
		strings.ToLower(field.Kind),
		strings.TrimSpace(field.Placeholder),
		strings.Join(opts, ","),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:8])
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory cache. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a fresh entry for key. Stale entries are evicted.
func (m *Memory) Get(_ context.Context, key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	if m.now().Sub(e.Timestamp) >= m.ttl {
		delete(m.entries, key)
		return Entry{}, false
	}
	return e, true
}

// Set stores candidates under key with the current time.
func (m *Memory) Set(_ context.Context, key string, candidates []types.Candidate) {
	stored := make([]types.Candidate, len(candidates))
	copy(stored, candidates)

	m.mu.Lock()
	m.entries[key] = Entry{Candidates: stored, Timestamp: m.now()}
	m.mu.Unlock()
}

// Len returns the number of entries, fresh or stale.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Reset drops every entry.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.entries = make(map[string]Entry)
	m.mu.Unlock()
}
