// Package backend provides the interchangeable transports that send scrubbed
// field batches to a statistical classifier and normalize its answers.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/form-autofill/internal/types"
)

// ErrInsufficientCredits is returned when the hosted backend answers 402.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Transport classifies one chunk of fields and decides auto-add questions.
// Implementations must return results in the normalized {index, type,
// confidence} shape regardless of what the underlying service speaks.
type Transport interface {
	ClassifyFields(ctx context.Context, req *types.ClassifyFieldsRequest) (*types.ClassifyFieldsResponse, error)
	DecideAutoAdd(ctx context.Context, req *types.AutoAddRequest) (*types.AutoAddDecision, error)
}

// TransportError represents a failed backend exchange.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// normalizeResults drops results for indexes that were not requested, clamps
// confidences into [0,1] and canonicalizes type names. Unknown type names are
// kept as-is so the caller can collapse them.
func normalizeResults(req *types.ClassifyFieldsRequest, results []types.BackendResult) []types.BackendResult {
	requested := make(map[int]bool, len(req.Fields))
	for _, f := range req.Fields {
		requested[f.Index] = true
	}

	seen := make(map[int]bool, len(results))
	out := make([]types.BackendResult, 0, len(results))
	for _, r := range results {
		if !requested[r.Index] || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		if t, ok := types.ParseTaxonomy(r.Type); ok {
			r.Type = string(t)
		}
		r.Confidence = types.ClampScore(r.Confidence)
		out = append(out, r)
	}
	return out
}

// CreditsFor returns the credits charged for classifying n fields: one per
// started batch of types.MaxBatchFields.
func CreditsFor(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + types.MaxBatchFields - 1) / types.MaxBatchFields
}
