// Package engine owns the per-page state of the autofill pipeline and runs
// classification, planning and fill passes over scanned fields.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/form-autofill/internal/autoadd"
	"github.com/jonathan/form-autofill/internal/backend"
	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/classify"
	"github.com/jonathan/form-autofill/internal/fillplan"
	"github.com/jonathan/form-autofill/internal/learn"
	"github.com/jonathan/form-autofill/internal/parsers"
	"github.com/jonathan/form-autofill/internal/resolve"
	"github.com/jonathan/form-autofill/internal/sections"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
	"go.uber.org/zap"
)

// ErrNoExecutor is returned by Fill when the engine has no executor.
var ErrNoExecutor = errors.New("no executor configured")

// Executor writes one planned value into the page.
type Executor interface {
	Apply(ctx context.Context, plan types.FillPlan) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, plan types.FillPlan) error

// Apply calls f.
func (f ExecutorFunc) Apply(ctx context.Context, plan types.FillPlan) error {
	return f(ctx, plan)
}

// ApplyResult is the executor's outcome for one plan.
type ApplyResult struct {
	Plan types.FillPlan
	Err  error
}

// Pass is the output of one classification and planning pass.
type Pass struct {
	Classifications []types.Classification
	Sections        sections.Result
	Result          *types.FillResult
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCache replaces the default in-memory classification cache.
func WithCache(c cache.Store) Option {
	return func(e *Engine) { e.cache = c }
}

// WithRegistry replaces the default parser registry.
func WithRegistry(r *parsers.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithExecutor sets the executor used by Fill and the auto-add loop.
func WithExecutor(x Executor) Option {
	return func(e *Engine) { e.executor = x }
}

// WithBatchOptions passes options to the batch classifier.
func WithBatchOptions(opts ...classify.BatchOption) Option {
	return func(e *Engine) { e.batchOpts = append(e.batchOpts, opts...) }
}

// Engine is the explicit context object for one page session. It owns the
// cache, the parser registry, the processed-field set and the user-modified
// markers. Passes never run concurrently: starting a pass cancels the
// previous one.
type Engine struct {
	store     store.Store
	transport backend.Transport
	executor  Executor
	logger    *zap.Logger
	cache     cache.Store
	registry  *parsers.Registry
	batchOpts []classify.BatchOption

	classifier *classify.Classifier
	builder    *fillplan.Builder
	learner    *learn.Learner

	mu         sync.Mutex
	known      map[int]types.Classification
	order      []int
	processed  map[int]bool
	modified   map[int]bool
	cancelPass context.CancelFunc
	passSeq    uint64
}

// New creates an engine over a profile store. A nil transport disables the
// statistical classifier and the auto-add loop.
func New(st store.Store, transport backend.Transport, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		transport: transport,
		logger:    zap.NewNop(),
		known:     make(map[int]types.Classification),
		processed: make(map[int]bool),
		modified:  make(map[int]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.NewMemory(cache.DefaultTTL)
	}
	if e.registry == nil {
		e.registry = parsers.DefaultRegistry()
	}

	var batch *classify.BatchClassifier
	if transport != nil {
		batch = classify.NewBatchClassifier(transport, e.cache,
			append([]classify.BatchOption{classify.WithLogger(e.logger)}, e.batchOpts...)...)
	}
	e.classifier = classify.NewClassifier(e.registry, batch, e.logger)
	e.builder = fillplan.NewBuilder(resolve.New(st, st), e.logger)
	e.learner = learn.NewLearner(st, st, e.logger)
	return e
}

// Learner returns the engine's learning pipeline.
func (e *Engine) Learner() *learn.Learner {
	return e.learner
}

// Plan classifies fields and builds a fill result for those neither
// processed nor modified by the user. Section detection sees every field
// classified since the last Reset so block indexes stay stable across
// re-scans.
func (e *Engine) Plan(ctx context.Context, fields []types.FieldDescriptor, page *types.PageContext) (*Pass, error) {
	ctx, done := e.beginPass(ctx)
	defer done()
	return e.plan(ctx, fields, page, false)
}

// Run plans fields and applies the resulting plans.
func (e *Engine) Run(ctx context.Context, fields []types.FieldDescriptor, page *types.PageContext) (*Pass, []ApplyResult, error) {
	ctx, done := e.beginPass(ctx)
	defer done()

	pass, err := e.plan(ctx, fields, page, false)
	if err != nil {
		return nil, nil, err
	}
	results, err := e.apply(ctx, pass.Result.Plans)
	return pass, results, err
}

// Fill applies plans through the executor in order. User-modified fields are
// skipped, failures are reported and never retried, and every successfully
// written field is marked processed.
func (e *Engine) Fill(ctx context.Context, plans []types.FillPlan) ([]ApplyResult, error) {
	return e.apply(ctx, plans)
}

// AutoAdd runs the auto-add loop for every group type, filling each newly
// revealed block as it appears.
func (e *Engine) AutoAdd(ctx context.Context, page autoadd.Page) ([]autoadd.Outcome, error) {
	if e.transport == nil {
		return nil, nil
	}

	e.mu.Lock()
	classes := e.knownLocked()
	e.mu.Unlock()
	secs := sections.Detect(classes)

	groups := make([]autoadd.Group, 0, len(types.GroupTypes()))
	for _, g := range types.GroupTypes() {
		groups = append(groups, autoadd.Group{
			Type:         g,
			VisibleCount: secs.Count(g),
			FieldLabels:  e.labels(secs, g),
		})
	}

	loop := autoadd.New(e.transport, e.store, page, e.fillRevealed, e.logger)
	return loop.RunAll(ctx, groups)
}

// fillRevealed plans and applies newly revealed fields, bypassing the
// processed set.
func (e *Engine) fillRevealed(ctx context.Context, fields []types.FieldDescriptor) (*types.FillResult, error) {
	pass, err := e.plan(ctx, fields, nil, true)
	if err != nil {
		return nil, err
	}
	if e.executor != nil {
		if _, err := e.apply(ctx, pass.Result.Plans); err != nil {
			return pass.Result, err
		}
	}
	return pass.Result, nil
}

// MarkUserModified records that the user edited a field; it is never
// overwritten until Reset.
func (e *Engine) MarkUserModified(fieldIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modified[fieldIndex] = true
}

// Processed reports whether a field was already filled in this session.
func (e *Engine) Processed(fieldIndex int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processed[fieldIndex]
}

// Reset clears per-page state at a page or session boundary and cancels any
// running pass. The classification cache is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.cancelPass != nil {
		e.cancelPass()
		e.cancelPass = nil
	}
	e.known = make(map[int]types.Classification)
	e.order = nil
	e.processed = make(map[int]bool)
	e.modified = make(map[int]bool)
	e.mu.Unlock()

	e.learner.Reset()
}

func (e *Engine) beginPass(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	e.mu.Lock()
	if e.cancelPass != nil {
		e.cancelPass()
	}
	e.passSeq++
	seq := e.passSeq
	e.cancelPass = cancel
	e.mu.Unlock()

	return ctx, func() {
		e.mu.Lock()
		if e.passSeq == seq {
			e.cancelPass = nil
		}
		e.mu.Unlock()
		cancel()
	}
}

func (e *Engine) plan(ctx context.Context, fields []types.FieldDescriptor, page *types.PageContext, bypassProcessed bool) (*Pass, error) {
	e.mu.Lock()
	var todo, untracked []types.FieldDescriptor
	for _, f := range fields {
		if e.modified[f.Index] {
			if _, seen := e.known[f.Index]; !seen {
				untracked = append(untracked, f)
			}
			continue
		}
		if !bypassProcessed && e.processed[f.Index] {
			continue
		}
		todo = append(todo, f)
	}
	e.mu.Unlock()

	blocks := &types.ContextBlocks{Page: page}
	if examples, err := e.learner.Examples(ctx); err != nil {
		e.logger.Warn("failed to load classifier examples", zap.Error(err))
	} else {
		blocks.Examples = examples
	}

	classes := e.classifier.Classify(ctx, todo, blocks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// User-edited fields are never planned but still belong to the scan, so
	// they get a rule-only classification for sections and phone correction.
	scanned := classes
	for _, f := range untracked {
		scanned = append(scanned, types.Classification{Field: f, Candidates: e.classifier.ClassifyRules(f)})
	}

	e.mu.Lock()
	for _, c := range scanned {
		if _, seen := e.known[c.Field.Index]; !seen {
			e.order = append(e.order, c.Field.Index)
		}
		e.known[c.Field.Index] = c
	}
	all := e.knownLocked()
	e.mu.Unlock()

	secs := sections.Detect(all)
	result := e.builder.BuildScan(ctx, classes, all, secs)

	e.logger.Info("planned pass",
		zap.Int("fields", len(fields)),
		zap.Int("classified", len(classes)),
		zap.Int("plans", len(result.Plans)),
		zap.Int("suggestions", len(result.Suggestions)),
		zap.Int("sensitive", len(result.Sensitive)),
		zap.Int("skipped", len(result.Skipped)))

	return &Pass{Classifications: classes, Sections: secs, Result: result}, nil
}

func (e *Engine) apply(ctx context.Context, plans []types.FillPlan) ([]ApplyResult, error) {
	if e.executor == nil {
		return nil, ErrNoExecutor
	}

	results := make([]ApplyResult, 0, len(plans))
	for _, p := range plans {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		e.mu.Lock()
		skip := e.modified[p.Field.Index]
		e.mu.Unlock()
		if skip {
			continue
		}

		err := e.executor.Apply(ctx, p)
		results = append(results, ApplyResult{Plan: p, Err: err})
		if err != nil {
			e.logger.Warn("fill failed",
				zap.Int("field", p.Field.Index),
				zap.String("type", string(p.Type)),
				zap.Error(err))
			continue
		}

		e.mu.Lock()
		e.processed[p.Field.Index] = true
		e.mu.Unlock()
	}
	return results, nil
}

func (e *Engine) knownLocked() []types.Classification {
	out := make([]types.Classification, 0, len(e.order))
	for _, idx := range e.order {
		out = append(out, e.known[idx])
	}
	return out
}

func (e *Engine) labels(secs sections.Result, g types.GroupType) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []string
	for _, idx := range secs.Fields(g) {
		if label := classify.DisplayLabel(e.known[idx].Field); label != "" {
			out = append(out, label)
		}
	}
	if len(out) > autoadd.MaxFieldLabels {
		out = out[len(out)-autoadd.MaxFieldLabels:]
	}
	return out
}
