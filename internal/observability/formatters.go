// Package observability provides the zap logger and the human-readable
// printer used by the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/form-autofill/internal/autoadd"
	"github.com/jonathan/form-autofill/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintClassifications outputs the best candidate of each field.
func (p *Printer) PrintClassifications(classes []types.Classification) {
	if len(classes) == 0 {
		return
	}

	var sb strings.Builder
	for _, c := range classes {
		best := c.Best()
		sb.WriteString(fmt.Sprintf("#%-3d %-18s %.2f  %s\n", c.Field.Index, best.Type, best.Score, FieldName(c.Field)))
	}
	p.printBox(fmt.Sprintf("CLASSIFIED FIELDS (%d)", len(classes)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFillResult outputs a human-readable summary of one fill pass.
func (p *Printer) PrintFillResult(res *types.FillResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Auto-fill: %d  Suggestions: %d  Sensitive: %d  Skipped: %d\n",
		len(res.Plans), len(res.Suggestions), len(res.Sensitive), len(res.Skipped)))

	if len(res.Plans) > 0 {
		sb.WriteString("\nAuto-fill:\n")
		count := min(len(res.Plans), maxItemsToShow)
		for i := 0; i < count; i++ {
			plan := res.Plans[i]
			sb.WriteString(fmt.Sprintf("  • %s = %q (%.2f)\n", plan.Type, plan.Answer.Value, plan.Confidence))
		}
		if len(res.Plans) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(res.Plans)-maxItemsToShow))
		}
	}

	writeSuggestions(&sb, "Suggestions", res.Suggestions)
	writeSuggestions(&sb, "Needs manual selection", res.Sensitive)

	if len(res.Skipped) > 0 {
		sb.WriteString("\nSkipped:\n")
		count := min(len(res.Skipped), maxItemsToShow)
		for i := 0; i < count; i++ {
			s := res.Skipped[i]
			sb.WriteString(fmt.Sprintf("  • %s: %s\n", FieldName(s.Field), s.Reason))
		}
		if len(res.Skipped) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(res.Skipped)-maxItemsToShow))
		}
	}

	p.printBox("FILL PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAutoAdd outputs what the auto-add loop did per group.
func (p *Printer) PrintAutoAdd(outcomes []autoadd.Outcome) {
	if len(outcomes) == 0 {
		return
	}

	var sb strings.Builder
	for _, o := range outcomes {
		sb.WriteString(fmt.Sprintf("%-10s added %d in %d iteration(s): %s\n", o.Group, o.Added, o.Iterations, o.StopReason))
	}
	p.printBox("AUTO-ADD", strings.TrimSuffix(sb.String(), "\n"))
}

func writeSuggestions(sb *strings.Builder, title string, suggestions []types.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	sb.WriteString("\n" + title + ":\n")
	for _, s := range suggestions {
		values := make([]string, 0, len(s.Candidates))
		for _, c := range s.Candidates {
			values = append(values, fmt.Sprintf("%q", c.Value))
		}
		sb.WriteString(fmt.Sprintf("  • %s (%s, %.2f): %s\n", FieldName(s.Field), s.Type, s.Score, strings.Join(values, ", ")))
	}
}

// FieldName picks the most readable identifier for a field: visible text,
// then the name attribute, then "#id", then the element index.
func FieldName(f types.FieldDescriptor) string {
	for _, s := range []string{f.Label, f.AriaLabel, f.Placeholder, f.Name} {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
	}
	if id := strings.TrimSpace(f.ID); id != "" {
		return "#" + id
	}
	return fmt.Sprintf("field %d", f.Index)
}
