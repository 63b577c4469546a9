// Package fillplan splits classified fields into auto-fill plans,
// suggestions and sensitive fields that need a manual pick.
package fillplan

import (
	"context"
	"fmt"

	"github.com/jonathan/form-autofill/internal/sections"
	"github.com/jonathan/form-autofill/internal/transform"
	"github.com/jonathan/form-autofill/internal/types"
	"go.uber.org/zap"
)

// Plan builder constants.
const (
	ConfidenceThreshold = 0.75
	MaxCandidates       = 3
)

// Skip reasons.
const (
	ReasonUnclassified = "unclassified"
	ReasonNoAnswer     = "no stored answer"
	ReasonLookupFailed = "answer lookup failed"
)

// Resolver is the answer lookup the builder depends on.
type Resolver interface {
	Resolve(ctx context.Context, field types.FieldDescriptor, typ types.Taxonomy, sec *types.SectionContext) ([]types.ResolvedAnswer, error)
}

// Builder turns classifications into a FillResult.
type Builder struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewBuilder creates a plan builder.
func NewBuilder(resolver Resolver, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{resolver: resolver, logger: logger}
}

// Build routes every classification to exactly one bucket of the result,
// treating classes as the whole scan.
func (b *Builder) Build(ctx context.Context, classes []types.Classification, secs sections.Result) *types.FillResult {
	return b.BuildScan(ctx, classes, classes, secs)
}

// BuildScan plans classes, a subset of the page's scan. Fields are processed
// in input order and no field blocks the others. Phone plans lose their
// country code when any field of scan is a country-code field, including
// fields filled or edited outside this pass.
func (b *Builder) BuildScan(ctx context.Context, classes, scan []types.Classification, secs sections.Result) *types.FillResult {
	res := &types.FillResult{}

	for _, c := range classes {
		best := c.Best()
		if best.Type == types.Unknown {
			res.Skipped = append(res.Skipped, b.skip(c.Field, best.Type, ReasonUnclassified))
			continue
		}

		var sec *types.SectionContext
		if sc, ok := secs.Context(c.Field.Index); ok {
			sec = &sc
		}

		answers, err := b.resolver.Resolve(ctx, c.Field, best.Type, sec)
		if err != nil {
			b.logger.Warn("answer lookup failed",
				zap.Int("field", c.Field.Index),
				zap.String("type", string(best.Type)),
				zap.Error(err))
			res.Skipped = append(res.Skipped, types.Skip{Field: c.Field, Type: best.Type, Reason: ReasonLookupFailed})
			continue
		}
		if len(answers) == 0 {
			res.Skipped = append(res.Skipped, b.skip(c.Field, best.Type, fmt.Sprintf("%s for %s", ReasonNoAnswer, best.Type)))
			continue
		}

		top := answers[0]
		switch {
		case best.Type.Sensitive() || !top.Answer.AutofillAllowed:
			res.Sensitive = append(res.Sensitive, suggestion(c.Field, best, answers))
		case best.Score < ConfidenceThreshold:
			res.Suggestions = append(res.Suggestions, suggestion(c.Field, best, answers))
		default:
			answer := top.Answer
			answer.Value = top.Value
			res.Plans = append(res.Plans, types.FillPlan{
				Field:      c.Field,
				Type:       best.Type,
				Answer:     answer,
				Confidence: types.ClampScore(best.Score),
			})
		}
	}

	if hasCountryCode(classes) || hasCountryCode(scan) {
		for i := range res.Plans {
			if res.Plans[i].Type == types.Phone {
				res.Plans[i].Answer.Value = transform.StripCountryCode(res.Plans[i].Answer.Value)
			}
		}
	}

	return res
}

func hasCountryCode(classes []types.Classification) bool {
	for _, c := range classes {
		if c.Best().Type == types.CountryCode {
			return true
		}
	}
	return false
}

func (b *Builder) skip(field types.FieldDescriptor, typ types.Taxonomy, reason string) types.Skip {
	b.logger.Debug("field skipped",
		zap.Int("field", field.Index),
		zap.String("type", string(typ)),
		zap.String("reason", reason))
	return types.Skip{Field: field, Type: typ, Reason: reason}
}

func suggestion(field types.FieldDescriptor, best types.Candidate, answers []types.ResolvedAnswer) types.Suggestion {
	n := min(len(answers), MaxCandidates)
	return types.Suggestion{
		Field:      field,
		Type:       best.Type,
		Score:      best.Score,
		Candidates: append([]types.ResolvedAnswer(nil), answers[:n]...),
	}
}
