// Package db provides the PostgreSQL-backed answer store and credit ledger.
package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates any missing tables. It is safe to run repeatedly.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Profile returns a store scoped to one profile's answers, experiences and
// observations.
func (db *DB) Profile(name string) (*ProfileStore, error) {
	if name == "" {
		return nil, fmt.Errorf("profile name cannot be empty")
	}
	return &ProfileStore{db: db, profile: name}, nil
}

// ProfileStore is a store.Store over the shared tables, filtered by profile.
type ProfileStore struct {
	db      *DB
	profile string
}

// Name returns the profile this store reads and writes.
func (s *ProfileStore) Name() string {
	return s.profile
}
