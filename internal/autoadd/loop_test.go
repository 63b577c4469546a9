package autoadd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDecider struct {
	decision types.AutoAddDecision
	err      error
	requests []*types.AutoAddRequest
}

func (d *fakeDecider) DecideAutoAdd(_ context.Context, req *types.AutoAddRequest) (*types.AutoAddDecision, error) {
	d.requests = append(d.requests, req)
	if d.err != nil {
		return nil, d.err
	}
	out := d.decision
	return &out, nil
}

type fakePage struct {
	hasControl bool
	// fieldsPerReveal is the number of new fields each reveal returns;
	// exhaustAfter stops returning fields after that many reveals.
	fieldsPerReveal int
	exhaustAfter    int
	reveals         int
}

func (p *fakePage) RevealControl(context.Context, types.GroupType) (string, string, bool, error) {
	return "+ Add another", "Work Experience", p.hasControl, nil
}

func (p *fakePage) Reveal(_ context.Context, group types.GroupType) ([]types.FieldDescriptor, error) {
	p.reveals++
	if p.exhaustAfter > 0 && p.reveals > p.exhaustAfter {
		return nil, nil
	}
	out := make([]types.FieldDescriptor, p.fieldsPerReveal)
	for i := range out {
		out[i] = types.FieldDescriptor{Index: p.reveals*100 + i, Label: fmt.Sprintf("%s field %d", group, i)}
	}
	return out, nil
}

func experiences(t *testing.T, group types.GroupType, n int) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	for i := 0; i < n; i++ {
		require.NoError(t, m.SaveExperience(context.Background(), &types.ExperienceEntry{GroupType: group, Priority: i}))
	}
	return m
}

func countingFill(calls *[][]types.FieldDescriptor) FillFunc {
	return func(_ context.Context, fields []types.FieldDescriptor) (*types.FillResult, error) {
		*calls = append(*calls, fields)
		return &types.FillResult{}, nil
	}
}

func TestRun_BoundedByMaxIterations(t *testing.T) {
	var fills [][]types.FieldDescriptor
	page := &fakePage{hasControl: true, fieldsPerReveal: 3}
	loop := New(&fakeDecider{decision: types.AutoAddDecision{ShouldAdd: true, Confidence: 0.9}},
		experiences(t, types.GroupWork, 20), page, countingFill(&fills), nil)

	o, err := loop.Run(context.Background(), Group{Type: types.GroupWork, VisibleCount: 1})
	require.NoError(t, err)
	assert.Equal(t, MaxIterations, o.Iterations)
	assert.Equal(t, MaxIterations, o.Added)
	assert.Equal(t, StopMaxIterations, o.StopReason)
	assert.Equal(t, MaxIterations, page.reveals)
	assert.Len(t, fills, MaxIterations)
}

func TestRun_StopsOnLowConfidence(t *testing.T) {
	page := &fakePage{hasControl: true, fieldsPerReveal: 2}
	loop := New(&fakeDecider{decision: types.AutoAddDecision{ShouldAdd: true, Confidence: 0.59}},
		experiences(t, types.GroupWork, 3), page, countingFill(new([][]types.FieldDescriptor)), nil)

	o, err := loop.Run(context.Background(), Group{Type: types.GroupWork, VisibleCount: 1})
	require.NoError(t, err)
	assert.Equal(t, StopLowConfidence, o.StopReason)
	assert.Equal(t, 0, page.reveals)
}

func TestRun_StopsWhenDeclined(t *testing.T) {
	loop := New(&fakeDecider{decision: types.AutoAddDecision{ShouldAdd: false, Confidence: 0.95}},
		experiences(t, types.GroupWork, 3), &fakePage{hasControl: true}, nil, nil)

	o, err := loop.Run(context.Background(), Group{Type: types.GroupWork})
	require.NoError(t, err)
	assert.Equal(t, StopDeclined, o.StopReason)
}

func TestRun_StopsWhenRevealAddsNothing(t *testing.T) {
	var fills [][]types.FieldDescriptor
	page := &fakePage{hasControl: true, fieldsPerReveal: 2, exhaustAfter: 1}
	loop := New(&fakeDecider{decision: types.AutoAddDecision{ShouldAdd: true, Confidence: 0.9}},
		experiences(t, types.GroupEducation, 4), page, countingFill(&fills), nil)

	o, err := loop.Run(context.Background(), Group{Type: types.GroupEducation, VisibleCount: 1})
	require.NoError(t, err)
	assert.Equal(t, StopNoNewFields, o.StopReason)
	assert.Equal(t, 1, o.Added)
	assert.Equal(t, 2, o.Iterations)
	require.Len(t, fills, 1)
	assert.Equal(t, []State{StateIdle, StateDecide, StateClicked, StateFilled, StateIdle, StateDecide, StateClicked, StateIdle}, o.Transitions)
}

func TestRun_SkipsWithoutStoredEntries(t *testing.T) {
	decider := &fakeDecider{decision: types.AutoAddDecision{ShouldAdd: true, Confidence: 1}}
	loop := New(decider, store.NewMemory(), &fakePage{hasControl: true}, nil, nil)

	o, err := loop.Run(context.Background(), Group{Type: types.GroupProject})
	require.NoError(t, err)
	assert.Equal(t, StopNoEntries, o.StopReason)
	assert.Empty(t, decider.requests)
}

func TestRun_StopsWhenAllEntriesVisible(t *testing.T) {
	var fills [][]types.FieldDescriptor
	decider := &fakeDecider{decision: types.AutoAddDecision{ShouldAdd: true, Confidence: 0.9}}
	loop := New(decider, experiences(t, types.GroupWork, 3), &fakePage{hasControl: true, fieldsPerReveal: 1}, countingFill(&fills), nil)

	o, err := loop.Run(context.Background(), Group{Type: types.GroupWork, VisibleCount: 1})
	require.NoError(t, err)
	assert.Equal(t, StopAllVisible, o.StopReason)
	assert.Equal(t, 2, o.Added)
	require.Len(t, decider.requests, 2)
	assert.Equal(t, 1, decider.requests[0].VisibleCount)
	assert.Equal(t, 2, decider.requests[1].VisibleCount)
	assert.Equal(t, []string{"WORK field 0"}, decider.requests[1].FieldLabels)
}

func TestRun_NoControl(t *testing.T) {
	loop := New(&fakeDecider{}, experiences(t, types.GroupWork, 2), &fakePage{}, nil, nil)
	o, err := loop.Run(context.Background(), Group{Type: types.GroupWork})
	require.NoError(t, err)
	assert.Equal(t, StopNoControl, o.StopReason)
}

func TestRun_DecisionFailureStopsGroupOnly(t *testing.T) {
	var fills [][]types.FieldDescriptor
	m := experiences(t, types.GroupWork, 2)
	require.NoError(t, m.SaveExperience(context.Background(), &types.ExperienceEntry{GroupType: types.GroupEducation, Priority: 0}))

	decider := &fakeDecider{err: errors.New("backend down")}
	loop := New(decider, m, &fakePage{hasControl: true, fieldsPerReveal: 1}, countingFill(&fills), nil)

	outcomes, err := loop.RunAll(context.Background(), []Group{
		{Type: types.GroupWork},
		{Type: types.GroupEducation},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Contains(t, outcomes[0].StopReason, StopDecisionFailed)
	assert.Contains(t, outcomes[1].StopReason, StopDecisionFailed)
	assert.Len(t, decider.requests, 2, "second group still ran")
}

func TestRunAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := New(&fakeDecider{}, experiences(t, types.GroupWork, 2), &fakePage{hasControl: true}, nil, nil)
	_, err := loop.RunAll(ctx, []Group{{Type: types.GroupWork}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFirstN(t *testing.T) {
	labels := make([]string, 15)
	assert.Len(t, firstN(labels, MaxFieldLabels), MaxFieldLabels)
	assert.Len(t, firstN(labels[:3], MaxFieldLabels), 3)
}
