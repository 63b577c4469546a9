//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/go-playground/validator/v10"

// MaxBatchFields bounds the number of fields in one classification request.
const MaxBatchFields = 10

// BackendField is the scrubbed, wire-level view of a field sent to a
// classification backend.
type BackendField struct {
	Index              int      `json:"index" validate:"min=0"`
	TagName            string   `json:"tagName"`
	Type               string   `json:"type,omitempty"`
	Name               string   `json:"name,omitempty"`
	ID                 string   `json:"id,omitempty"`
	Placeholder        string   `json:"placeholder,omitempty"`
	LabelText          string   `json:"labelText,omitempty"`
	SectionTitle       string   `json:"sectionTitle,omitempty"`
	Options            []string `json:"options,omitempty"`
	AriaLabel          string   `json:"ariaLabel,omitempty"`
	SurroundingText    string   `json:"surroundingText,omitempty"`
	AncestorCandidates []string `json:"ancestorCandidates,omitempty"`
}

// PageContext describes the page a form lives on.
type PageContext struct {
	Title    string   `json:"title,omitempty"`
	URLPath  string   `json:"urlPath,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// SiblingField is an already-classified field of the same form.
type SiblingField struct {
	Label string   `json:"label"`
	Type  Taxonomy `json:"type"`
}

// LabelExample is a historical label→type pair used as few-shot guidance.
type LabelExample struct {
	Label string   `json:"label"`
	Type  Taxonomy `json:"type"`
}

// ContextBlocks carries optional guidance for the classifier.
type ContextBlocks struct {
	Page     *PageContext   `json:"page,omitempty"`
	Siblings []SiblingField `json:"siblings,omitempty"`
	Examples []LabelExample `json:"examples,omitempty"`
}

// ClassifyFieldsRequest is one chunk sent to a classification backend.
type ClassifyFieldsRequest struct {
	Fields        []BackendField `json:"fields" validate:"required,min=1,max=10,dive"`
	ContextBlocks *ContextBlocks `json:"contextBlocks,omitempty"`
}

// BackendResult is one normalized classification result.
type BackendResult struct {
	Index      int     `json:"index"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// ClassifyFieldsResponse is the normalized backend response shape.
type ClassifyFieldsResponse struct {
	Success     bool            `json:"success"`
	Results     []BackendResult `json:"results"`
	CreditsUsed int             `json:"creditsUsed,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// AutoAddRequest asks whether another repeated block should be revealed.
type AutoAddRequest struct {
	GroupType    GroupType `json:"groupType" validate:"required,oneof=WORK EDUCATION PROJECT"`
	ButtonText   string    `json:"buttonText"`
	SectionText  string    `json:"sectionText,omitempty"`
	FieldLabels  []string  `json:"fieldLabels,omitempty" validate:"max=10"`
	StoredCount  int       `json:"storedCount" validate:"min=0"`
	VisibleCount int       `json:"visibleCount" validate:"min=0"`
}

// AutoAddDecision is the classifier's answer to an AutoAddRequest.
type AutoAddDecision struct {
	ShouldAdd   bool    `json:"shouldAdd"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason,omitempty"`
	CreditsUsed int     `json:"creditsUsed,omitempty"`
}

// Validate validates the ClassifyFieldsRequest using the validator.
func (r *ClassifyFieldsRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the AutoAddRequest using the validator.
func (r *AutoAddRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
