package learn

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLearner(t *testing.T) (*Learner, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	l := NewLearner(m, m, nil)
	clock := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return l, m
}

func TestObserve_LatestValueWins(t *testing.T) {
	l, _ := newLearner(t)
	l.Observe(1, types.City, "City", "Bos")
	l.Observe(1, types.City, "City", "Boston")
	l.Observe(2, types.Unknown, "???", "x")

	pending := l.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "Boston", pending[0].Value)

	l.Observe(1, types.City, "City", "  ")
	assert.Empty(t, l.Pending())
}

func TestCommit_CreatesAnswer(t *testing.T) {
	ctx := context.Background()
	l, m := newLearner(t)
	l.Observe(0, types.Email, "Email", "jane@example.com")

	a, err := l.Commit(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, types.Email, a.Type)
	assert.True(t, a.AutofillAllowed)

	stored, err := m.GetByType(ctx, types.Email)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Empty(t, l.Pending())

	_, err = l.Commit(ctx, 0)
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestCommit_DedupesByValue(t *testing.T) {
	ctx := context.Background()
	l, m := newLearner(t)

	l.Observe(0, types.City, "City", "Boston")
	first, err := l.Commit(ctx, 0)
	require.NoError(t, err)

	l.Observe(5, types.City, "Town", "boston")
	second, err := l.Commit(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	all, err := m.GetByType(ctx, types.City)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCommit_UpgradesPartialNeverDowngrades(t *testing.T) {
	ctx := context.Background()
	l, m := newLearner(t)

	l.Observe(0, types.GradDate, "Graduation", "2023-09")
	partial, err := l.Commit(ctx, 0)
	require.NoError(t, err)

	l.Observe(0, types.GradDate, "Graduation", "2023-09-01")
	upgraded, err := l.Commit(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, partial.ID, upgraded.ID)
	assert.Equal(t, "2023-09-01", upgraded.Value)

	l.Observe(0, types.GradDate, "Graduation", "2023-09")
	kept, err := l.Commit(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "2023-09-01", kept.Value)

	all, err := m.GetByType(ctx, types.GradDate)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "2023-09-01", all[0].Value)
}

func TestCommit_SensitiveStoredWithoutAutofill(t *testing.T) {
	l, _ := newLearner(t)
	l.Observe(0, types.EEOVeteran, "Veteran status", "I am not a veteran")
	a, err := l.Commit(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, types.SensitivitySensitive, a.Sensitivity)
	assert.False(t, a.AutofillAllowed)
}

func TestCommitAllAndDiscard(t *testing.T) {
	l, _ := newLearner(t)
	l.Observe(2, types.City, "City", "Boston")
	l.Observe(1, types.Email, "Email", "a@b.co")
	l.Observe(3, types.Phone, "Phone", "555-0100")
	l.Discard(3)

	committed, err := l.CommitAll(context.Background())
	require.NoError(t, err)
	require.Len(t, committed, 2)
	assert.Equal(t, types.Email, committed[0].Type)
	assert.Equal(t, types.City, committed[1].Type)
}

func TestExamples_BoundedAndNewestFirst(t *testing.T) {
	ctx := context.Background()
	l, _ := newLearner(t)

	for i := 0; i < MaxExamples+5; i++ {
		l.Observe(i, types.Skills, fmt.Sprintf("Label %d", i), fmt.Sprintf("skill %d", i))
		_, err := l.Commit(ctx, i)
		require.NoError(t, err)
	}

	examples, err := l.Examples(ctx)
	require.NoError(t, err)
	assert.Len(t, examples, MaxExamples)
	assert.Equal(t, fmt.Sprintf("Label %d", MaxExamples+4), examples[0].Label)
}

func TestReset(t *testing.T) {
	l, _ := newLearner(t)
	l.Observe(0, types.City, "City", "Boston")
	l.Reset()
	assert.Empty(t, l.Pending())
}
