package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/prompts"
	"github.com/jonathan/form-autofill/internal/types"
)

// DirectTransport classifies fields by prompting a configured model directly
// and parsing its free-text completion into the normalized shape.
type DirectTransport struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewDirectTransport wraps an llm.Client. Classification uses the lite tier.
func NewDirectTransport(client llm.Client) *DirectTransport {
	return &DirectTransport{client: client, tier: llm.TierLite}
}

// WithTier returns a copy of the transport using a different model tier.
func (t *DirectTransport) WithTier(tier llm.ModelTier) *DirectTransport {
	return &DirectTransport{client: t.client, tier: tier}
}

// ClassifyFields prompts the model with one chunk and parses its answer.
func (t *DirectTransport) ClassifyFields(ctx context.Context, req *types.ClassifyFieldsRequest) (*types.ClassifyFieldsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &TransportError{Op: "classify-fields", Message: "invalid request", Cause: err}
	}

	prompt, err := BuildClassifyPrompt(req)
	if err != nil {
		return nil, &TransportError{Op: "classify-fields", Message: "failed to build prompt", Cause: err}
	}

	text, err := t.client.GenerateContent(ctx, prompt, t.tier)
	if err != nil {
		return nil, &TransportError{Op: "classify-fields", Message: "model call failed", Cause: err}
	}

	results, err := ParseClassification(text)
	if err != nil {
		return nil, &TransportError{Op: "classify-fields", Message: "unparseable completion", Cause: err}
	}

	return &types.ClassifyFieldsResponse{
		Success: true,
		Results: normalizeResults(req, results),
	}, nil
}

// DecideAutoAdd prompts the model for an add-another-block decision.
func (t *DirectTransport) DecideAutoAdd(ctx context.Context, req *types.AutoAddRequest) (*types.AutoAddDecision, error) {
	if err := req.Validate(); err != nil {
		return nil, &TransportError{Op: "auto-add-decision", Message: "invalid request", Cause: err}
	}

	prompt, err := prompts.Render(prompts.AutoAddDecision, map[string]string{
		"GroupType":    string(req.GroupType),
		"StoredCount":  strconv.Itoa(req.StoredCount),
		"VisibleCount": strconv.Itoa(req.VisibleCount),
		"SectionText":  orNone(req.SectionText),
		"FieldLabels":  orNone(strings.Join(req.FieldLabels, ", ")),
		"ButtonText":   req.ButtonText,
	})
	if err != nil {
		return nil, &TransportError{Op: "auto-add-decision", Message: "failed to build prompt", Cause: err}
	}

	text, err := t.client.GenerateJSON(ctx, prompt, t.tier)
	if err != nil {
		return nil, &TransportError{Op: "auto-add-decision", Message: "model call failed", Cause: err}
	}

	var decision types.AutoAddDecision
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &decision); err != nil {
		return nil, &TransportError{Op: "auto-add-decision", Message: "unparseable completion", Cause: err}
	}
	decision.Confidence = types.ClampScore(decision.Confidence)
	return &decision, nil
}

// BuildClassifyPrompt renders the classification prompt for one chunk.
func BuildClassifyPrompt(req *types.ClassifyFieldsRequest) (string, error) {
	fields, err := json.MarshalIndent(req.Fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}

	var taxonomy strings.Builder
	for _, t := range types.AllTypes() {
		fmt.Fprintf(&taxonomy, "- %s: %s\n", t, t.Description())
	}
	fmt.Fprintf(&taxonomy, "- %s: None of the above", types.Unknown)

	page, siblings, examples := "(none)", "(none)", "(none)"
	if cb := req.ContextBlocks; cb != nil {
		if cb.Page != nil {
			page = formatPage(cb.Page)
		}
		if len(cb.Siblings) > 0 {
			lines := make([]string, 0, len(cb.Siblings))
			for _, s := range cb.Siblings {
				lines = append(lines, fmt.Sprintf("- %q -> %s", s.Label, s.Type))
			}
			siblings = strings.Join(lines, "\n")
		}
		if len(cb.Examples) > 0 {
			lines := make([]string, 0, len(cb.Examples))
			for _, e := range cb.Examples {
				lines = append(lines, fmt.Sprintf("- %q -> %s", e.Label, e.Type))
			}
			examples = strings.Join(lines, "\n")
		}
	}

	return prompts.Render(prompts.ClassifyFields, map[string]string{
		"Taxonomy": taxonomy.String(),
		"Page":     page,
		"Siblings": siblings,
		"Examples": examples,
		"Fields":   string(fields),
	})
}

// rawResult tolerates numbers sent as strings.
type rawResult struct {
	Index      json.Number `json:"index"`
	Type       string      `json:"type"`
	Confidence json.Number `json:"confidence"`
}

// ParseClassification leniently parses a model completion into results.
// It accepts a bare array or an object wrapping one under "results", with
// markdown fences, surrounding commentary and trailing commas removed first.
func ParseClassification(text string) ([]types.BackendResult, error) {
	cleaned := llm.ExtractJSON(text)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON found in completion")
	}

	var raw []rawResult
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		var wrapped struct {
			Results []rawResult `json:"results"`
		}
		if err2 := json.Unmarshal([]byte(cleaned), &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to parse classification JSON: %w", err)
		}
		raw = wrapped.Results
	}

	out := make([]types.BackendResult, 0, len(raw))
	for _, r := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(r.Index.String()))
		if err != nil {
			continue
		}
		conf, err := r.Confidence.Float64()
		if err != nil {
			conf = 0
		}
		out = append(out, types.BackendResult{Index: idx, Type: r.Type, Confidence: conf})
	}
	return out, nil
}

func formatPage(p *types.PageContext) string {
	var parts []string
	if p.Title != "" {
		parts = append(parts, "Title: "+p.Title)
	}
	if p.URLPath != "" {
		parts = append(parts, "URL path: "+p.URLPath)
	}
	if len(p.Keywords) > 0 {
		parts = append(parts, "Keywords: "+strings.Join(p.Keywords, ", "))
	}
	return orNone(strings.Join(parts, "\n"))
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
