package parsers

import (
	"strings"

	"github.com/jonathan/form-autofill/internal/types"
)

const (
	autocompleteScore = 0.95
	inputKindScore    = 0.90
)

var autocompleteHints = map[string]types.Taxonomy{
	"name":               types.FullName,
	"given-name":         types.FirstName,
	"family-name":        types.LastName,
	"email":              types.Email,
	"tel":                types.Phone,
	"tel-national":       types.Phone,
	"tel-local":          types.Phone,
	"tel-country-code":   types.CountryCode,
	"address-level2":     types.City,
	"street-address":     types.Location,
	"address-line1":      types.Location,
	"organization":       types.CompanyName,
	"organization-title": types.JobTitle,
	"url":                types.Portfolio,
}

// AutocompleteParser maps the declared autocomplete hint to a kind.
type AutocompleteParser struct{}

// NewAutocompleteParser creates the autocomplete-hint parser.
func NewAutocompleteParser() *AutocompleteParser { return &AutocompleteParser{} }

// Name identifies the parser in candidate reasons.
func (p *AutocompleteParser) Name() string { return "autocomplete" }

// Priority is 1: the strongest structural signal runs first.
func (p *AutocompleteParser) Priority() int { return 1 }

// CanParse reports whether the field declares an autocomplete hint.
func (p *AutocompleteParser) CanParse(field types.FieldDescriptor) bool {
	hint := strings.TrimSpace(field.Autocomplete)
	return hint != "" && !strings.EqualFold(hint, "off") && !strings.EqualFold(hint, "on")
}

// Parse matches the last token of the hint ("section-a shipping email" -> "email").
func (p *AutocompleteParser) Parse(field types.FieldDescriptor) []types.Candidate {
	tokens := strings.Fields(strings.ToLower(field.Autocomplete))
	if len(tokens) == 0 {
		return nil
	}
	hint := tokens[len(tokens)-1]
	typ, ok := autocompleteHints[hint]
	if !ok {
		return nil
	}
	return []types.Candidate{types.NewCandidate(typ, autocompleteScore, "autocomplete="+hint)}
}

var inputKinds = map[string]types.Taxonomy{
	"email": types.Email,
	"tel":   types.Phone,
	"url":   types.Portfolio,
}

// InputKindParser maps the control's input type to a kind.
type InputKindParser struct{}

// NewInputKindParser creates the input-kind parser.
func NewInputKindParser() *InputKindParser { return &InputKindParser{} }

// Name identifies the parser in candidate reasons.
func (p *InputKindParser) Name() string { return "input-kind" }

// Priority is 2.
func (p *InputKindParser) Priority() int { return 2 }

// CanParse reports whether the field has an input type.
func (p *InputKindParser) CanParse(field types.FieldDescriptor) bool {
	return field.Kind != ""
}

// Parse returns a candidate when the input type is an exact match.
func (p *InputKindParser) Parse(field types.FieldDescriptor) []types.Candidate {
	kind := strings.ToLower(strings.TrimSpace(field.Kind))
	typ, ok := inputKinds[kind]
	if !ok {
		return nil
	}
	return []types.Candidate{types.NewCandidate(typ, inputKindScore, "type="+kind)}
}
