// Package autoadd reveals and fills additional repeated blocks (another job,
// another degree) while stored entries remain to be placed on the page.
package autoadd

import (
	"context"
	"fmt"

	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loop constants.
const (
	MaxIterations       = 5
	ConfidenceThreshold = 0.6
	MaxFieldLabels      = 10
)

// State is a step of the per-group state machine.
type State string

// Loop states.
const (
	StateIdle    State = "idle"
	StateDecide  State = "decide"
	StateClicked State = "clicked"
	StateFilled  State = "filled"
)

// Stop reasons.
const (
	StopNoEntries      = "no stored entries"
	StopAllVisible     = "all stored entries visible"
	StopNoControl      = "no reveal control"
	StopDeclined       = "classifier declined"
	StopLowConfidence  = "decision below confidence threshold"
	StopNoNewFields    = "reveal produced no new fields"
	StopMaxIterations  = "iteration limit reached"
	StopDecisionFailed = "decision failed"
	StopRevealFailed   = "reveal failed"
	StopFillFailed     = "fill failed"
)

// Decider answers whether another block should be revealed.
type Decider interface {
	DecideAutoAdd(ctx context.Context, req *types.AutoAddRequest) (*types.AutoAddDecision, error)
}

// Page is the host surface: it finds and triggers "add another" controls.
type Page interface {
	// RevealControl returns the control's text and the surrounding section
	// text. ok is false when the group has no such control.
	RevealControl(ctx context.Context, group types.GroupType) (buttonText, sectionText string, ok bool, err error)
	// Reveal triggers the control, waits for the page to settle and returns
	// only the fields that appeared.
	Reveal(ctx context.Context, group types.GroupType) ([]types.FieldDescriptor, error)
}

// FillFunc classifies and fills newly revealed fields, bypassing the
// already-processed set.
type FillFunc func(ctx context.Context, fields []types.FieldDescriptor) (*types.FillResult, error)

// Group is the starting point of one group's loop.
type Group struct {
	Type         types.GroupType
	VisibleCount int
	FieldLabels  []string
}

// Outcome records what one group's loop did.
type Outcome struct {
	Group       types.GroupType
	Iterations  int
	Added       int
	Results     []*types.FillResult
	StopReason  string
	Transitions []State
}

// Loop drives the auto-add state machine.
type Loop struct {
	decider     Decider
	experiences store.ExperienceStore
	page        Page
	fill        FillFunc
	logger      *zap.Logger
}

// New creates a loop.
func New(decider Decider, experiences store.ExperienceStore, page Page, fill FillFunc, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{decider: decider, experiences: experiences, page: page, fill: fill, logger: logger}
}

// RunAll runs every group in order. A failing group stops only itself.
func (l *Loop) RunAll(ctx context.Context, groups []Group) ([]Outcome, error) {
	out := make([]Outcome, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(1)
	for i, grp := range groups {
		g.Go(func() error {
			o, err := l.Run(gctx, grp)
			out[i] = o
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// Run loops one group through idle, decide, clicked and filled until a stop
// condition holds or MaxIterations is reached. Only context cancellation is
// returned as an error; every other failure ends the loop with a reason.
func (l *Loop) Run(ctx context.Context, grp Group) (Outcome, error) {
	o := Outcome{Group: grp.Type, Transitions: []State{StateIdle}}
	visible := grp.VisibleCount
	labels := grp.FieldLabels

	entries, err := l.experiences.ListExperiences(ctx, grp.Type)
	if err != nil {
		return l.stop(o, StopDecisionFailed, err), nil
	}
	stored := len(entries)

	for o.Iterations < MaxIterations {
		if err := ctx.Err(); err != nil {
			return o, err
		}
		o.Transitions = append(o.Transitions, StateDecide)

		if stored == 0 {
			return l.stop(o, StopNoEntries, nil), nil
		}
		if visible >= stored {
			return l.stop(o, StopAllVisible, nil), nil
		}

		button, section, ok, err := l.page.RevealControl(ctx, grp.Type)
		if err != nil {
			return l.stop(o, StopRevealFailed, err), nil
		}
		if !ok {
			return l.stop(o, StopNoControl, nil), nil
		}

		decision, err := l.decider.DecideAutoAdd(ctx, &types.AutoAddRequest{
			GroupType:    grp.Type,
			ButtonText:   button,
			SectionText:  section,
			FieldLabels:  firstN(labels, MaxFieldLabels),
			StoredCount:  stored,
			VisibleCount: visible,
		})
		if err != nil {
			if ctx.Err() != nil {
				return o, ctx.Err()
			}
			return l.stop(o, StopDecisionFailed, err), nil
		}
		if !decision.ShouldAdd {
			return l.stop(o, StopDeclined, nil), nil
		}
		if decision.Confidence < ConfidenceThreshold {
			return l.stop(o, StopLowConfidence, nil), nil
		}

		o.Iterations++
		fields, err := l.page.Reveal(ctx, grp.Type)
		if err != nil {
			return l.stop(o, StopRevealFailed, err), nil
		}
		o.Transitions = append(o.Transitions, StateClicked)
		if len(fields) == 0 {
			return l.stop(o, StopNoNewFields, nil), nil
		}

		res, err := l.fill(ctx, fields)
		if err != nil {
			return l.stop(o, StopFillFailed, err), nil
		}
		o.Results = append(o.Results, res)
		o.Added++
		visible++
		labels = fieldLabels(fields)
		o.Transitions = append(o.Transitions, StateFilled, StateIdle)

		l.logger.Info("revealed block",
			zap.String("group", string(grp.Type)),
			zap.Int("iteration", o.Iterations),
			zap.Int("new_fields", len(fields)),
			zap.String("reason", decision.Reason))
	}

	return l.stop(o, StopMaxIterations, nil), nil
}

func (l *Loop) stop(o Outcome, reason string, err error) Outcome {
	o.StopReason = reason
	if o.Transitions[len(o.Transitions)-1] != StateIdle {
		o.Transitions = append(o.Transitions, StateIdle)
	}
	fields := []zap.Field{
		zap.String("group", string(o.Group)),
		zap.Int("iterations", o.Iterations),
		zap.String("reason", reason),
	}
	if err != nil {
		l.logger.Warn("auto-add stopped", append(fields, zap.Error(err))...)
		o.StopReason = fmt.Sprintf("%s: %v", reason, err)
	} else {
		l.logger.Debug("auto-add stopped", fields...)
	}
	return o
}

func fieldLabels(fields []types.FieldDescriptor) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, s := range []string{f.Label, f.AriaLabel, f.Placeholder, f.Name} {
			if s != "" {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
