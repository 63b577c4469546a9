// Package store defines the answer, experience and observation stores the
// engine reads from and the learning pipeline writes to, plus an in-memory
// implementation. Every store instance is scoped to one profile.
package store

import (
	"context"
	"errors"

	"github.com/jonathan/form-autofill/internal/types"
)

// ErrNotFound is returned when a record to update or delete does not exist.
var ErrNotFound = errors.New("not found")

// AnswerStore holds stored answer values.
type AnswerStore interface {
	GetByType(ctx context.Context, t types.Taxonomy) ([]types.AnswerValue, error)
	// FindByValue returns nil, nil when no answer of type t has value.
	FindByValue(ctx context.Context, t types.Taxonomy, value string) (*types.AnswerValue, error)
	ListAnswers(ctx context.Context) ([]types.AnswerValue, error)
	SaveAnswer(ctx context.Context, a *types.AnswerValue) error
	DeleteAnswer(ctx context.Context, id string) error
}

// ExperienceStore holds repeated work, education and project entries.
type ExperienceStore interface {
	// GetByPriority returns nil, nil when no entry matches.
	GetByPriority(ctx context.Context, group types.GroupType, priority int) (*types.ExperienceEntry, error)
	ListExperiences(ctx context.Context, group types.GroupType) ([]types.ExperienceEntry, error)
	SaveExperience(ctx context.Context, e *types.ExperienceEntry) error
	DeleteExperience(ctx context.Context, id string) error
}

// ObservationStore holds committed observations.
type ObservationStore interface {
	SaveObservation(ctx context.Context, o *types.Observation) error
	// RecentObservations returns up to limit observations, newest first.
	RecentObservations(ctx context.Context, limit int) ([]types.Observation, error)
}

// Store is the full per-profile store.
type Store interface {
	AnswerStore
	ExperienceStore
	ObservationStore
}
