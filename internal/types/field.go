//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// FieldDescriptor describes one form control found by the scanner.
// Index is an opaque handle into the scanner's element table; the engine never
// dereferences it, it only hands it back to the executor.
type FieldDescriptor struct {
	Index              int      `json:"index"`
	Tag                string   `json:"tag_name"`
	Kind               string   `json:"type,omitempty"`
	Name               string   `json:"name,omitempty"`
	ID                 string   `json:"id,omitempty"`
	Placeholder        string   `json:"placeholder,omitempty"`
	Autocomplete       string   `json:"autocomplete,omitempty"`
	Label              string   `json:"label_text,omitempty"`
	SectionTitle       string   `json:"section_title,omitempty"`
	SectionAnchor      string   `json:"section_anchor,omitempty"`
	AriaLabel          string   `json:"aria_label,omitempty"`
	SurroundingText    string   `json:"surrounding_text,omitempty"`
	Options            []string `json:"options,omitempty"`
	AncestorCandidates []string `json:"ancestor_candidates,omitempty"`
}

// Attribute keys understood by Attr.
const (
	AttrName         = "name"
	AttrID           = "id"
	AttrPlaceholder  = "placeholder"
	AttrType         = "type"
	AttrAutocomplete = "autocomplete"
)

// Attr returns the attribute value for key, or "" when unset.
func (f FieldDescriptor) Attr(key string) string {
	switch key {
	case AttrName:
		return f.Name
	case AttrID:
		return f.ID
	case AttrPlaceholder:
		return f.Placeholder
	case AttrType:
		return f.Kind
	case AttrAutocomplete:
		return f.Autocomplete
	}
	return ""
}

// IsChoice reports whether the control offers a fixed option list.
func (f FieldDescriptor) IsChoice() bool {
	if len(f.Options) > 0 {
		return true
	}
	kind := strings.ToLower(f.Kind)
	return strings.EqualFold(f.Tag, "select") || kind == "radio" || kind == "checkbox"
}

// Classification pairs a field with its ranked candidate list.
type Classification struct {
	Field      FieldDescriptor `json:"field"`
	Candidates []Candidate     `json:"candidates"`
}

// Best returns the top candidate, or an UNKNOWN candidate if the list is empty.
func (c Classification) Best() Candidate {
	if len(c.Candidates) == 0 {
		return Candidate{Type: Unknown, Score: 0, Reasons: []string{"no match found"}}
	}
	return c.Candidates[0]
}
