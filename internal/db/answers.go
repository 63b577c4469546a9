package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
)

const answerColumns = `id, type, value, display, sensitivity, autofill_allowed, created_at, updated_at`

// GetByType returns answers of type t, most recently updated first.
func (s *ProfileStore) GetByType(ctx context.Context, t types.Taxonomy) ([]types.AnswerValue, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT `+answerColumns+` FROM answers
		 WHERE profile = $1 AND type = $2
		 ORDER BY updated_at DESC, id`,
		s.profile, string(t),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers by type: %w", err)
	}
	return collectAnswers(rows)
}

// FindByValue matches value case-insensitively after trimming.
func (s *ProfileStore) FindByValue(ctx context.Context, t types.Taxonomy, value string) (*types.AnswerValue, error) {
	a, err := scanAnswer(s.db.pool.QueryRow(ctx,
		`SELECT `+answerColumns+` FROM answers
		 WHERE profile = $1 AND type = $2 AND lower(btrim(value)) = lower(btrim($3))
		 ORDER BY updated_at DESC LIMIT 1`,
		s.profile, string(t), value,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find answer: %w", err)
	}
	return a, nil
}

// ListAnswers returns every answer of the profile, most recently updated first.
func (s *ProfileStore) ListAnswers(ctx context.Context) ([]types.AnswerValue, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT `+answerColumns+` FROM answers
		 WHERE profile = $1
		 ORDER BY updated_at DESC, id`,
		s.profile,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return collectAnswers(rows)
}

// SaveAnswer upserts an answer, assigning an ID and timestamps when missing.
func (s *ProfileStore) SaveAnswer(ctx context.Context, a *types.AnswerValue) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	a.ApplySensitivity()

	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO answers (id, profile, type, value, display, sensitivity, autofill_allowed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   type = EXCLUDED.type,
		   value = EXCLUDED.value,
		   display = EXCLUDED.display,
		   sensitivity = EXCLUDED.sensitivity,
		   autofill_allowed = EXCLUDED.autofill_allowed,
		   updated_at = EXCLUDED.updated_at
		 WHERE answers.profile = EXCLUDED.profile`,
		a.ID, s.profile, string(a.Type), a.Value, a.Display, string(a.Sensitivity), a.AutofillAllowed, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// DeleteAnswer removes an answer by ID.
func (s *ProfileStore) DeleteAnswer(ctx context.Context, id string) error {
	tag, err := s.db.pool.Exec(ctx,
		`DELETE FROM answers WHERE profile = $1 AND id = $2`,
		s.profile, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAnswer(row pgx.Row) (*types.AnswerValue, error) {
	var a types.AnswerValue
	var typ, sensitivity string
	if err := row.Scan(&a.ID, &typ, &a.Value, &a.Display, &sensitivity, &a.AutofillAllowed, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Type = types.Taxonomy(typ)
	a.Sensitivity = types.Sensitivity(sensitivity)
	return &a, nil
}

func collectAnswers(rows pgx.Rows) ([]types.AnswerValue, error) {
	defer rows.Close()

	var out []types.AnswerValue
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	return out, nil
}
