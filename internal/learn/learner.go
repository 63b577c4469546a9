// Package learn turns confirmed manual entries into stored answers and
// exposes past label→type pairs as classifier examples.
package learn

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/transform"
	"github.com/jonathan/form-autofill/internal/types"
	"go.uber.org/zap"
)

// MaxExamples bounds the few-shot examples sent with a classification chunk.
const MaxExamples = 20

// ErrNoPending is returned when committing a field with no pending entry.
var ErrNoPending = errors.New("no pending observation")

// Learner holds pending observations until they are committed or discarded.
type Learner struct {
	answers      store.AnswerStore
	observations store.ObservationStore
	logger       *zap.Logger
	now          func() time.Time

	mu      sync.Mutex
	pending map[int]types.PendingObservation
}

// NewLearner creates a learner.
func NewLearner(answers store.AnswerStore, observations store.ObservationStore, logger *zap.Logger) *Learner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Learner{
		answers:      answers,
		observations: observations,
		logger:       logger,
		now:          time.Now,
		pending:      make(map[int]types.PendingObservation),
	}
}

// Observe records the latest value typed into a field. An empty value or an
// unclassified field clears the pending entry.
func (l *Learner) Observe(fieldIndex int, typ types.Taxonomy, label, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	value = strings.TrimSpace(value)
	if value == "" || typ == types.Unknown || !typ.Valid() {
		delete(l.pending, fieldIndex)
		return
	}
	l.pending[fieldIndex] = types.PendingObservation{
		FieldIndex: fieldIndex,
		Type:       typ,
		Label:      label,
		Value:      value,
		ObservedAt: l.now(),
	}
}

// Pending returns pending observations ordered by field index.
func (l *Learner) Pending() []types.PendingObservation {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.PendingObservation, 0, len(l.pending))
	for _, p := range l.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldIndex < out[j].FieldIndex })
	return out
}

// Discard drops a field's pending observation.
func (l *Learner) Discard(fieldIndex int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, fieldIndex)
}

// Reset drops every pending observation.
func (l *Learner) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = make(map[int]types.PendingObservation)
}

// Commit promotes a field's pending observation to a stored answer. An
// identical stored value is reused; a stored value the new one extends is
// upgraded in place; a new value that only prefixes a stored one never
// replaces it.
func (l *Learner) Commit(ctx context.Context, fieldIndex int) (*types.AnswerValue, error) {
	l.mu.Lock()
	p, ok := l.pending[fieldIndex]
	delete(l.pending, fieldIndex)
	l.mu.Unlock()
	if !ok {
		return nil, ErrNoPending
	}

	answer, err := l.store(ctx, p)
	if err != nil {
		return nil, err
	}

	obs := &types.Observation{
		Type:        p.Type,
		Label:       p.Label,
		AnswerID:    answer.ID,
		CommittedAt: l.now(),
	}
	if err := l.observations.SaveObservation(ctx, obs); err != nil {
		return nil, fmt.Errorf("failed to save observation: %w", err)
	}
	return answer, nil
}

// CommitAll commits every pending observation in field order.
func (l *Learner) CommitAll(ctx context.Context) ([]types.AnswerValue, error) {
	var out []types.AnswerValue
	for _, p := range l.Pending() {
		a, err := l.Commit(ctx, p.FieldIndex)
		if errors.Is(err, ErrNoPending) {
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (l *Learner) store(ctx context.Context, p types.PendingObservation) (*types.AnswerValue, error) {
	now := l.now()

	existing, err := l.answers.FindByValue(ctx, p.Type, p.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s answer: %w", p.Type, err)
	}
	if existing != nil {
		existing.UpdatedAt = now
		if err := l.answers.SaveAnswer(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to save answer: %w", err)
		}
		return existing, nil
	}

	stored, err := l.answers.GetByType(ctx, p.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s answers: %w", p.Type, err)
	}
	for i := range stored {
		s := &stored[i]
		if transform.IsPartialValue(s.Value, p.Value) {
			l.logger.Debug("upgrading partial answer",
				zap.String("type", string(p.Type)),
				zap.String("id", s.ID))
			s.Value = p.Value
			s.Display = p.Value
			s.UpdatedAt = now
			if err := l.answers.SaveAnswer(ctx, s); err != nil {
				return nil, fmt.Errorf("failed to save answer: %w", err)
			}
			return s, nil
		}
		if transform.IsPartialValue(p.Value, s.Value) {
			return s, nil
		}
	}

	a := types.NewAnswerValue(p.Type, p.Value, now)
	if err := l.answers.SaveAnswer(ctx, &a); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}
	return &a, nil
}

// Examples returns recent label→type pairs, newest first, one per label.
func (l *Learner) Examples(ctx context.Context) ([]types.LabelExample, error) {
	obs, err := l.observations.RecentObservations(ctx, MaxExamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}

	seen := make(map[string]bool, len(obs))
	out := make([]types.LabelExample, 0, len(obs))
	for _, o := range obs {
		key := strings.ToLower(strings.TrimSpace(o.Label))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, types.LabelExample{Label: o.Label, Type: o.Type})
	}
	return out, nil
}
