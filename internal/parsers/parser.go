// Package parsers provides the stateless rule cascade that turns structural
// hints on a form field into scored taxonomy candidates.
package parsers

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/form-autofill/internal/types"
)

// Parser is one rule-based classifier. Priority orders the cascade only;
// it never affects candidate scores.
type Parser interface {
	Name() string
	Priority() int
	CanParse(field types.FieldDescriptor) bool
	Parse(field types.FieldDescriptor) []types.Candidate
}

// Registry runs a fixed set of parsers in priority order.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry sorted by ascending priority value.
func NewRegistry(parsers ...Parser) *Registry {
	sorted := make([]Parser, len(parsers))
	copy(sorted, parsers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Registry{parsers: sorted}
}

// DefaultRegistry returns the four built-in parsers.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewAutocompleteParser(),
		NewInputKindParser(),
		NewNameIDParser(),
		NewLabelParser(),
	)
}

// Parsers returns the registered parsers in cascade order.
func (r *Registry) Parsers() []Parser {
	out := make([]Parser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// Run executes every parser that can handle the field and concatenates
// their candidates in cascade order. No parser short-circuits another.
func (r *Registry) Run(field types.FieldDescriptor) []types.Candidate {
	var out []types.Candidate
	for _, p := range r.parsers {
		if !p.CanParse(field) {
			continue
		}
		out = append(out, p.Parse(field)...)
	}
	return out
}

// pattern is one row of a regex pattern table.
type pattern struct {
	re      *regexp.Regexp
	exclude *regexp.Regexp
	typ     types.Taxonomy
	score   float64
}

func (p pattern) matches(s string) bool {
	if s == "" || !p.re.MatchString(s) {
		return false
	}
	return p.exclude == nil || !p.exclude.MatchString(s)
}

func newPattern(expr string, typ types.Taxonomy, score float64) pattern {
	return pattern{re: regexp.MustCompile(expr), typ: typ, score: score}
}

func (p pattern) without(expr string) pattern {
	p.exclude = regexp.MustCompile(expr)
	return p
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
var identSeparators = regexp.MustCompile(`[\s\-.\[\]:/]+`)

// normalizeIdent turns "firstName", "first-name" and "First Name" into "first_name".
func normalizeIdent(s string) string {
	s = camelBoundary.ReplaceAllString(s, "${1}_${2}")
	s = identSeparators.ReplaceAllString(s, "_")
	s = strings.ToLower(strings.Trim(s, "_"))
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
