package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/form-autofill/internal/store"
)

// Balance returns the account's credits; unknown accounts have zero.
func (db *DB) Balance(ctx context.Context, account uuid.UUID) (int, error) {
	var credits int
	err := db.pool.QueryRow(ctx,
		`SELECT credits FROM credit_balances WHERE account_id = $1`,
		account,
	).Scan(&credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get credit balance: %w", err)
	}
	return credits, nil
}

// Debit removes n credits in one conditional update, or fails with
// store.ErrInsufficientCredits leaving the balance unchanged.
func (db *DB) Debit(ctx context.Context, account uuid.UUID, n int) (int, error) {
	var credits int
	err := db.pool.QueryRow(ctx,
		`UPDATE credit_balances SET credits = credits - $2, updated_at = NOW()
		 WHERE account_id = $1 AND credits >= $2
		 RETURNING credits`,
		account, n,
	).Scan(&credits)
	if err == nil {
		return credits, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to debit credits: %w", err)
	}

	balance, balErr := db.Balance(ctx, account)
	if balErr != nil {
		return 0, balErr
	}
	return balance, store.ErrInsufficientCredits
}

// Grant adds n credits, creating the account's balance when missing.
func (db *DB) Grant(ctx context.Context, account uuid.UUID, n int) (int, error) {
	var credits int
	err := db.pool.QueryRow(ctx,
		`INSERT INTO credit_balances (account_id, credits) VALUES ($1, $2)
		 ON CONFLICT (account_id) DO UPDATE SET
		   credits = credit_balances.credits + EXCLUDED.credits,
		   updated_at = NOW()
		 RETURNING credits`,
		account, n,
	).Scan(&credits)
	if err != nil {
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}
	return credits, nil
}

var _ store.CreditLedger = (*DB)(nil)
