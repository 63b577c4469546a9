//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Section is one repeated block of fields on a page (one job, one degree).
type Section struct {
	GroupType  GroupType `json:"group_type"`
	BlockIndex int       `json:"block_index"`
	Anchor     string    `json:"anchor,omitempty"`
	Fields     []int     `json:"fields"`
}

// SectionContext is the block a single field belongs to.
type SectionContext struct {
	GroupType  GroupType `json:"group_type"`
	BlockIndex int       `json:"block_index"`
}

// Resolution priorities, highest first.
const (
	PriorityExperience = 3
	PriorityDirect     = 2
	PriorityRelated    = 1
)

// ResolvedAnswer is a stored answer plus the value transformed for one field.
type ResolvedAnswer struct {
	Answer   AnswerValue `json:"answer"`
	Value    string      `json:"value"`
	Priority int         `json:"priority"`
}

// FillPlan is a field paired with a final value ready to be written.
type FillPlan struct {
	Field      FieldDescriptor `json:"field"`
	Type       Taxonomy        `json:"type"`
	Answer     AnswerValue     `json:"answer"`
	Confidence float64         `json:"confidence"`
}

// Suggestion is a field shown to the user rather than written automatically.
type Suggestion struct {
	Field      FieldDescriptor  `json:"field"`
	Type       Taxonomy         `json:"type"`
	Score      float64          `json:"score"`
	Candidates []ResolvedAnswer `json:"candidates"`
}

// Skip records why a field produced nothing.
type Skip struct {
	Field  FieldDescriptor `json:"field"`
	Type   Taxonomy        `json:"type"`
	Reason string          `json:"reason"`
}

// FillResult splits one pass into auto-fill plans, suggestions, and
// sensitive fields needing a manual pick.
type FillResult struct {
	Plans       []FillPlan   `json:"plans"`
	Suggestions []Suggestion `json:"suggestions"`
	Sensitive   []Suggestion `json:"sensitive"`
	Skipped     []Skip       `json:"skipped"`
}

// PendingObservation is a manual entry not yet confirmed by the user.
type PendingObservation struct {
	FieldIndex int       `json:"field_index"`
	Type       Taxonomy  `json:"type"`
	Label      string    `json:"label,omitempty"`
	Value      string    `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}

// Observation is a committed observation, linked to the answer it produced.
type Observation struct {
	ID          string    `json:"id"`
	Type        Taxonomy  `json:"type"`
	Label       string    `json:"label,omitempty"`
	AnswerID    string    `json:"answer_id"`
	CommittedAt time.Time `json:"committed_at"`
}
