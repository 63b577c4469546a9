package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
)

// SaveObservation records a committed observation.
func (s *ProfileStore) SaveObservation(ctx context.Context, o *types.Observation) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CommittedAt.IsZero() {
		o.CommittedAt = time.Now().UTC()
	}

	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO observations (id, profile, type, label, answer_id, committed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, s.profile, string(o.Type), o.Label, o.AnswerID, o.CommittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save observation: %w", err)
	}
	return nil
}

// RecentObservations returns up to limit observations, newest first. A
// non-positive limit returns all of them.
func (s *ProfileStore) RecentObservations(ctx context.Context, limit int) ([]types.Observation, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.db.pool.Query(ctx,
		`SELECT id, type, label, answer_id, committed_at FROM observations
		 WHERE profile = $1
		 ORDER BY committed_at DESC
		 LIMIT $2`,
		s.profile, lim,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	var out []types.Observation
	for rows.Next() {
		var o types.Observation
		var typ string
		if err := rows.Scan(&o.ID, &typ, &o.Label, &o.AnswerID, &o.CommittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.Type = types.Taxonomy(typ)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	return out, nil
}

var _ store.Store = (*ProfileStore)(nil)
