package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrInsufficientCredits is returned by Debit when the balance is too low.
// The balance is left unchanged.
var ErrInsufficientCredits = errors.New("insufficient credits")

// CreditLedger tracks per-account classification credits for the hosted
// backend.
type CreditLedger interface {
	Balance(ctx context.Context, account uuid.UUID) (int, error)
	// Debit removes n credits atomically and returns the new balance.
	Debit(ctx context.Context, account uuid.UUID, n int) (int, error)
	// Grant adds n credits and returns the new balance.
	Grant(ctx context.Context, account uuid.UUID, n int) (int, error)
}

// MemoryLedger is an in-process CreditLedger.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[uuid.UUID]int)}
}

// Balance returns the account's credits; unknown accounts have zero.
func (l *MemoryLedger) Balance(_ context.Context, account uuid.UUID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

// Debit removes n credits or fails with ErrInsufficientCredits.
func (l *MemoryLedger) Debit(_ context.Context, account uuid.UUID, n int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balances[account]
	if bal < n {
		return bal, ErrInsufficientCredits
	}
	l.balances[account] = bal - n
	return bal - n, nil
}

// Grant adds n credits.
func (l *MemoryLedger) Grant(_ context.Context, account uuid.UUID, n int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += n
	return l.balances[account], nil
}

var _ CreditLedger = (*MemoryLedger)(nil)
