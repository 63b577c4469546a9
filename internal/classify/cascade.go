package classify

import (
	"context"

	"github.com/jonathan/form-autofill/internal/parsers"
	"github.com/jonathan/form-autofill/internal/types"
	"go.uber.org/zap"
)

// AmbiguityThreshold is the rule score below which a field is sent to the
// statistical classifier.
const AmbiguityThreshold = 0.5

// maxSiblings bounds the classified-sibling context sent with each chunk.
const maxSiblings = 20

// Classifier runs the rule cascade on every field and escalates ambiguous
// fields to the batch classifier.
type Classifier struct {
	registry *parsers.Registry
	batch    *BatchClassifier
	logger   *zap.Logger
}

// NewClassifier creates a classifier. A nil batch classifier disables the
// statistical step; ambiguous fields then keep their rule result.
func NewClassifier(registry *parsers.Registry, batch *BatchClassifier, logger *zap.Logger) *Classifier {
	if registry == nil {
		registry = parsers.DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{registry: registry, batch: batch, logger: logger}
}

// ClassifyRules runs only the rule cascade for one field.
func (c *Classifier) ClassifyRules(field types.FieldDescriptor) []types.Candidate {
	return Merge(c.registry.Run(field))
}

// Classify returns one classification per field in input order.
func (c *Classifier) Classify(ctx context.Context, fields []types.FieldDescriptor, blocks *types.ContextBlocks) []types.Classification {
	out := make([]types.Classification, len(fields))
	rules := make([][]types.Candidate, len(fields))

	var ambiguous []types.FieldDescriptor
	var siblings []types.SiblingField
	for i, f := range fields {
		rules[i] = c.registry.Run(f)
		merged := Merge(rules[i])
		out[i] = types.Classification{Field: f, Candidates: merged}

		if Ambiguous(merged) {
			ambiguous = append(ambiguous, f)
		} else if label := DisplayLabel(f); label != "" && len(siblings) < maxSiblings {
			siblings = append(siblings, types.SiblingField{Label: Scrub(label), Type: merged[0].Type})
		}
	}

	if c.batch == nil || len(ambiguous) == 0 {
		return out
	}

	stat := c.batch.Classify(ctx, ambiguous, withSiblings(blocks, siblings))
	for i, f := range fields {
		cands, ok := stat[f.Index]
		if !ok {
			continue
		}
		out[i].Candidates = Merge(rules[i], cands)
	}

	c.logger.Debug("classified fields",
		zap.Int("fields", len(fields)),
		zap.Int("ambiguous", len(ambiguous)))
	return out
}

// Ambiguous reports whether a merged list needs the statistical classifier.
func Ambiguous(cands []types.Candidate) bool {
	if len(cands) == 0 {
		return true
	}
	return cands[0].Type == types.Unknown || cands[0].Score < AmbiguityThreshold
}

func withSiblings(blocks *types.ContextBlocks, siblings []types.SiblingField) *types.ContextBlocks {
	if len(siblings) == 0 {
		return blocks
	}
	out := &types.ContextBlocks{}
	if blocks != nil {
		*out = *blocks
	}
	out.Siblings = append(append([]types.SiblingField(nil), out.Siblings...), siblings...)
	return out
}
