package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/form-autofill/internal/autoadd"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type recordingExecutor struct {
	mu      sync.Mutex
	applied []types.FillPlan
	failFor map[int]error
}

func (r *recordingExecutor) Apply(_ context.Context, p types.FillPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, p)
	return r.failFor[p.Field.Index]
}

func (r *recordingExecutor) values() map[int]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]string, len(r.applied))
	for _, p := range r.applied {
		out[p.Field.Index] = p.Answer.Value
	}
	return out
}

// stubTransport answers every field with typ and records the context blocks
// it was sent. When block is set it waits for cancellation instead.
type stubTransport struct {
	mu       sync.Mutex
	typ      string
	blocks   []*types.ContextBlocks
	block    bool
	entered  chan struct{}
	decision *types.AutoAddDecision
}

func (s *stubTransport) ClassifyFields(ctx context.Context, req *types.ClassifyFieldsRequest) (*types.ClassifyFieldsResponse, error) {
	s.mu.Lock()
	s.blocks = append(s.blocks, req.ContextBlocks)
	s.mu.Unlock()

	if s.block {
		close(s.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	resp := &types.ClassifyFieldsResponse{Success: true}
	for _, f := range req.Fields {
		resp.Results = append(resp.Results, types.BackendResult{Index: f.Index, Type: s.typ, Confidence: 0.9})
	}
	return resp, nil
}

func (s *stubTransport) DecideAutoAdd(context.Context, *types.AutoAddRequest) (*types.AutoAddDecision, error) {
	if s.decision == nil {
		return nil, errors.New("no decision configured")
	}
	return s.decision, nil
}

func emailField(index int) types.FieldDescriptor {
	return types.FieldDescriptor{Index: index, Tag: "input", Kind: "email", Autocomplete: "email", Label: "Email"}
}

func newEngine(t *testing.T, transport *stubTransport, exec Executor, answers ...types.AnswerValue) (*Engine, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	for i := range answers {
		require.NoError(t, m.SaveAnswer(context.Background(), &answers[i]))
	}
	opts := []Option{WithExecutor(exec)}
	if transport == nil {
		return New(m, nil, opts...), m
	}
	return New(m, transport, opts...), m
}

func TestRun_FillsAndMarksProcessed(t *testing.T) {
	exec := &recordingExecutor{}
	e, _ := newEngine(t, nil, exec, types.NewAnswerValue(types.Email, "jane@example.com", now))

	pass, results, err := e.Run(context.Background(), []types.FieldDescriptor{emailField(0)}, nil)
	require.NoError(t, err)
	require.Len(t, pass.Result.Plans, 1)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "jane@example.com", exec.values()[0])
	assert.True(t, e.Processed(0))

	pass, results, err = e.Run(context.Background(), []types.FieldDescriptor{emailField(0)}, nil)
	require.NoError(t, err)
	assert.Empty(t, pass.Result.Plans)
	assert.Empty(t, results)
}

func TestRun_UserModifiedNeverOverwritten(t *testing.T) {
	exec := &recordingExecutor{}
	e, _ := newEngine(t, nil, exec, types.NewAnswerValue(types.Email, "jane@example.com", now))
	e.MarkUserModified(0)

	_, results, err := e.Run(context.Background(), []types.FieldDescriptor{emailField(0)}, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, exec.values())
}

func TestRun_EditedCountryCodeStripsPhone(t *testing.T) {
	exec := &recordingExecutor{}
	e, _ := newEngine(t, nil, exec, types.NewAnswerValue(types.Phone, "+1 555-123-4567", now))
	fields := []types.FieldDescriptor{
		{Index: 0, Tag: "select", Name: "country_code", Options: []string{"+1", "+44"}},
		{Index: 1, Tag: "input", Kind: "tel", Name: "phone", Label: "Phone"},
	}
	e.MarkUserModified(0)

	pass, _, err := e.Run(context.Background(), fields, nil)
	require.NoError(t, err)
	require.Len(t, pass.Result.Plans, 1)
	assert.Equal(t, types.Phone, pass.Result.Plans[0].Type)
	assert.Equal(t, "555-123-4567", exec.values()[1])
}

func TestRun_CountryCodeFilledEarlierStripsPhone(t *testing.T) {
	exec := &recordingExecutor{}
	e, _ := newEngine(t, nil, exec,
		types.NewAnswerValue(types.CountryCode, "+1", now),
		types.NewAnswerValue(types.Phone, "+1 555-123-4567", now))

	_, _, err := e.Run(context.Background(), []types.FieldDescriptor{
		{Index: 0, Tag: "input", Name: "country_code"},
	}, nil)
	require.NoError(t, err)
	require.True(t, e.Processed(0))

	pass, _, err := e.Run(context.Background(), []types.FieldDescriptor{
		{Index: 0, Tag: "input", Name: "country_code"},
		{Index: 1, Tag: "input", Kind: "tel", Name: "phone"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, pass.Result.Plans, 1)
	assert.Equal(t, "555-123-4567", pass.Result.Plans[0].Answer.Value)
}

func TestFill_SkipsFieldModifiedAfterPlanning(t *testing.T) {
	exec := &recordingExecutor{}
	e, _ := newEngine(t, nil, exec, types.NewAnswerValue(types.Email, "jane@example.com", now))

	pass, err := e.Plan(context.Background(), []types.FieldDescriptor{emailField(0)}, nil)
	require.NoError(t, err)
	require.Len(t, pass.Result.Plans, 1)

	e.MarkUserModified(0)
	results, err := e.Fill(context.Background(), pass.Result.Plans)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFill_FailureReportedNotProcessed(t *testing.T) {
	exec := &recordingExecutor{failFor: map[int]error{0: errors.New("element detached")}}
	e, _ := newEngine(t, nil, exec, types.NewAnswerValue(types.Email, "jane@example.com", now))

	_, results, err := e.Run(context.Background(), []types.FieldDescriptor{emailField(0)}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualError(t, results[0].Err, "element detached")
	assert.False(t, e.Processed(0))
}

func TestFill_NoExecutor(t *testing.T) {
	e := New(store.NewMemory(), nil)
	_, err := e.Fill(context.Background(), []types.FillPlan{{Field: emailField(0)}})
	assert.ErrorIs(t, err, ErrNoExecutor)
}

func TestReset_ClearsProcessedAndModified(t *testing.T) {
	exec := &recordingExecutor{}
	e, _ := newEngine(t, nil, exec, types.NewAnswerValue(types.Email, "jane@example.com", now))

	_, _, err := e.Run(context.Background(), []types.FieldDescriptor{emailField(0)}, nil)
	require.NoError(t, err)
	e.MarkUserModified(1)
	e.Learner().Observe(2, types.City, "City", "Boston")

	e.Reset()
	assert.False(t, e.Processed(0))
	assert.Empty(t, e.Learner().Pending())

	pass, err := e.Plan(context.Background(), []types.FieldDescriptor{emailField(0)}, nil)
	require.NoError(t, err)
	assert.Len(t, pass.Result.Plans, 1)
}

func TestPlan_NewPassCancelsPrevious(t *testing.T) {
	transport := &stubTransport{block: true, entered: make(chan struct{})}
	e, _ := newEngine(t, transport, &recordingExecutor{})

	errc := make(chan error, 1)
	go func() {
		_, err := e.Plan(context.Background(), []types.FieldDescriptor{{Index: 7, Tag: "input", Label: "Preferred pronouns"}}, nil)
		errc <- err
	}()

	select {
	case <-transport.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first pass never reached the backend")
	}

	_, err := e.Plan(context.Background(), []types.FieldDescriptor{emailField(0)}, nil)
	require.NoError(t, err)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("first pass was not cancelled")
	}
}

func TestPlan_SendsLearnedExamples(t *testing.T) {
	transport := &stubTransport{typ: "CITY"}
	e, _ := newEngine(t, transport, &recordingExecutor{})
	e.Learner().Observe(0, types.City, "Town of residence", "Boston")
	_, err := e.Learner().Commit(context.Background(), 0)
	require.NoError(t, err)

	pass, err := e.Plan(context.Background(), []types.FieldDescriptor{{Index: 3, Tag: "input", Label: "Hometown area"}},
		&types.PageContext{Title: "Apply"})
	require.NoError(t, err)

	require.Len(t, transport.blocks, 1)
	blocks := transport.blocks[0]
	require.NotNil(t, blocks)
	require.Len(t, blocks.Examples, 1)
	assert.Equal(t, "Town of residence", blocks.Examples[0].Label)
	assert.Equal(t, "Apply", blocks.Page.Title)

	require.Len(t, pass.Classifications, 1)
	assert.Equal(t, types.City, pass.Classifications[0].Best().Type)
	assert.Len(t, pass.Result.Plans, 1)
	assert.Equal(t, "Boston", pass.Result.Plans[0].Answer.Value)
}

type fakePage struct {
	revealed []types.FieldDescriptor
	reveals  int
}

func (p *fakePage) RevealControl(_ context.Context, g types.GroupType) (string, string, bool, error) {
	return "Add another", "Work Experience", g == types.GroupWork, nil
}

func (p *fakePage) Reveal(context.Context, types.GroupType) ([]types.FieldDescriptor, error) {
	p.reveals++
	return p.revealed, nil
}

func TestAutoAdd_FillsRevealedBlock(t *testing.T) {
	transport := &stubTransport{decision: &types.AutoAddDecision{ShouldAdd: true, Confidence: 0.9}}
	exec := &recordingExecutor{}
	e, m := newEngine(t, transport, exec)
	ctx := context.Background()

	for i, company := range []string{"Acme", "Beta Inc"} {
		require.NoError(t, m.SaveExperience(ctx, &types.ExperienceEntry{
			GroupType: types.GroupWork,
			Priority:  i,
			Fields:    map[types.Taxonomy]string{types.CompanyName: company},
		}))
	}

	first := types.FieldDescriptor{Index: 0, Tag: "input", Label: "Company", SectionTitle: "Work Experience", SectionAnchor: "job-0"}
	_, _, err := e.Run(ctx, []types.FieldDescriptor{first}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme", exec.values()[0])

	page := &fakePage{revealed: []types.FieldDescriptor{
		{Index: 5, Tag: "input", Label: "Company", SectionTitle: "Work Experience", SectionAnchor: "job-1"},
	}}
	outcomes, err := e.AutoAdd(ctx, page)
	require.NoError(t, err)
	require.Len(t, outcomes, len(types.GroupTypes()))

	var work autoadd.Outcome
	for _, o := range outcomes {
		if o.Group == types.GroupWork {
			work = o
		}
	}
	assert.Equal(t, 1, work.Added)
	assert.Equal(t, autoadd.StopAllVisible, work.StopReason)
	assert.Equal(t, 1, page.reveals)
	assert.Equal(t, "Beta Inc", exec.values()[5])
}

func TestAutoAdd_NoTransport(t *testing.T) {
	e := New(store.NewMemory(), nil)
	outcomes, err := e.AutoAdd(context.Background(), &fakePage{})
	require.NoError(t, err)
	assert.Nil(t, outcomes)
}
