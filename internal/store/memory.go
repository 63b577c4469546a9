package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/form-autofill/internal/types"
)

// Memory is an in-memory Store.
type Memory struct {
	mu           sync.RWMutex
	answers      map[string]types.AnswerValue
	experiences  map[string]types.ExperienceEntry
	observations []types.Observation
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		answers:     make(map[string]types.AnswerValue),
		experiences: make(map[string]types.ExperienceEntry),
	}
}

// GetByType returns answers of type t, most recently updated first.
func (m *Memory) GetByType(_ context.Context, t types.Taxonomy) ([]types.AnswerValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.AnswerValue
	for _, a := range m.answers {
		if a.Type == t {
			out = append(out, a)
		}
	}
	sortAnswers(out)
	return out, nil
}

// FindByValue matches value case-insensitively after trimming.
func (m *Memory) FindByValue(_ context.Context, t types.Taxonomy, value string) (*types.AnswerValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := strings.ToLower(strings.TrimSpace(value))
	for _, a := range m.answers {
		if a.Type == t && strings.ToLower(strings.TrimSpace(a.Value)) == want {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

// ListAnswers returns every answer, most recently updated first.
func (m *Memory) ListAnswers(_ context.Context) ([]types.AnswerValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.AnswerValue, 0, len(m.answers))
	for _, a := range m.answers {
		out = append(out, a)
	}
	sortAnswers(out)
	return out, nil
}

// SaveAnswer inserts or replaces an answer, assigning an ID when missing.
func (m *Memory) SaveAnswer(_ context.Context, a *types.AnswerValue) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.ApplySensitivity()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[a.ID] = *a
	return nil
}

// DeleteAnswer removes an answer by ID.
func (m *Memory) DeleteAnswer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.answers[id]; !ok {
		return ErrNotFound
	}
	delete(m.answers, id)
	return nil
}

// GetByPriority returns the entry of a group with the given priority.
func (m *Memory) GetByPriority(_ context.Context, group types.GroupType, priority int) (*types.ExperienceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.experiences {
		if e.GroupType == group && e.Priority == priority {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

// ListExperiences returns the entries of a group ordered by priority. An
// empty group lists every entry.
func (m *Memory) ListExperiences(_ context.Context, group types.GroupType) ([]types.ExperienceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.ExperienceEntry
	for _, e := range m.experiences {
		if group == "" || e.GroupType == group {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupType != out[j].GroupType {
			return out[i].GroupType < out[j].GroupType
		}
		return out[i].Priority < out[j].Priority
	})
	return out, nil
}

// SaveExperience inserts or replaces an entry, assigning an ID when missing.
func (m *Memory) SaveExperience(_ context.Context, e *types.ExperienceEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.experiences[e.ID] = *e
	return nil
}

// DeleteExperience removes an entry by ID.
func (m *Memory) DeleteExperience(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.experiences[id]; !ok {
		return ErrNotFound
	}
	delete(m.experiences, id)
	return nil
}

// SaveObservation appends a committed observation.
func (m *Memory) SaveObservation(_ context.Context, o *types.Observation) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, *o)
	return nil
}

// RecentObservations returns up to limit observations, newest first.
func (m *Memory) RecentObservations(_ context.Context, limit int) ([]types.Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Observation, len(m.observations))
	copy(out, m.observations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CommittedAt.After(out[j].CommittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortAnswers(out []types.AnswerValue) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

var _ Store = (*Memory)(nil)
