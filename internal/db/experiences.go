package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
)

const experienceColumns = `id, group_type, priority, start_date, end_date, fields, updated_at`

// GetByPriority returns the entry of a group with the given priority.
func (s *ProfileStore) GetByPriority(ctx context.Context, group types.GroupType, priority int) (*types.ExperienceEntry, error) {
	e, err := scanExperience(s.db.pool.QueryRow(ctx,
		`SELECT `+experienceColumns+` FROM experiences
		 WHERE profile = $1 AND group_type = $2 AND priority = $3
		 ORDER BY updated_at DESC LIMIT 1`,
		s.profile, string(group), priority,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get experience: %w", err)
	}
	return e, nil
}

// ListExperiences returns the entries of a group ordered by priority. An
// empty group lists every entry.
func (s *ProfileStore) ListExperiences(ctx context.Context, group types.GroupType) ([]types.ExperienceEntry, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT `+experienceColumns+` FROM experiences
		 WHERE profile = $1 AND ($2 = '' OR group_type = $2)
		 ORDER BY group_type, priority`,
		s.profile, string(group),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	var out []types.ExperienceEntry
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read experiences: %w", err)
	}
	return out, nil
}

// SaveExperience upserts an entry, assigning an ID when missing.
func (s *ProfileStore) SaveExperience(ctx context.Context, e *types.ExperienceEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}

	fields, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal experience fields: %w", err)
	}

	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO experiences (id, profile, group_type, priority, start_date, end_date, fields, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   group_type = EXCLUDED.group_type,
		   priority = EXCLUDED.priority,
		   start_date = EXCLUDED.start_date,
		   end_date = EXCLUDED.end_date,
		   fields = EXCLUDED.fields,
		   updated_at = EXCLUDED.updated_at
		 WHERE experiences.profile = EXCLUDED.profile`,
		e.ID, s.profile, string(e.GroupType), e.Priority, e.StartDate, e.EndDate, fields, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save experience: %w", err)
	}
	return nil
}

// DeleteExperience removes an entry by ID.
func (s *ProfileStore) DeleteExperience(ctx context.Context, id string) error {
	tag, err := s.db.pool.Exec(ctx,
		`DELETE FROM experiences WHERE profile = $1 AND id = $2`,
		s.profile, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete experience: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanExperience(row pgx.Row) (*types.ExperienceEntry, error) {
	var e types.ExperienceEntry
	var group string
	var fields []byte
	if err := row.Scan(&e.ID, &group, &e.Priority, &e.StartDate, &e.EndDate, &fields, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.GroupType = types.GroupType(group)
	if err := json.Unmarshal(fields, &e.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal experience fields: %w", err)
	}
	return &e, nil
}
