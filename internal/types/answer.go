//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sensitivity marks whether an answer may be auto-filled.
type Sensitivity string

// Sensitivity levels.
const (
	SensitivityNormal    Sensitivity = "normal"
	SensitivitySensitive Sensitivity = "sensitive"
)

// AnswerValue is a stored value for one taxonomy kind.
type AnswerValue struct {
	ID              string      `json:"id"`
	Type            Taxonomy    `json:"type"`
	Value           string      `json:"value"`
	Display         string      `json:"display,omitempty"`
	Sensitivity     Sensitivity `json:"sensitivity"`
	AutofillAllowed bool        `json:"autofill_allowed"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewAnswerValue creates an answer with sensitivity derived from its type.
// Normal kinds start auto-fillable; sensitive kinds never are.
func NewAnswerValue(t Taxonomy, value string, now time.Time) AnswerValue {
	a := AnswerValue{
		ID:              uuid.NewString(),
		Type:            t,
		Value:           value,
		Display:         value,
		AutofillAllowed: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	a.ApplySensitivity()
	return a
}

// UnmarshalJSON defaults AutofillAllowed to true when the document omits it,
// so an explicit "autofill_allowed": false is the only way to opt out.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	type plain AnswerValue
	v := plain{AutofillAllowed: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = AnswerValue(v)
	return nil
}

// ApplySensitivity re-derives Sensitivity from Type. A sensitive type or an
// answer marked sensitive forces AutofillAllowed to false; otherwise the
// current flag is kept.
func (a *AnswerValue) ApplySensitivity() {
	if a.Type.Sensitive() {
		a.Sensitivity = SensitivitySensitive
	}
	if a.Sensitivity == "" {
		a.Sensitivity = SensitivityNormal
	}
	if a.Sensitivity == SensitivitySensitive {
		a.AutofillAllowed = false
	}
}

// ExperienceEntry is one stored work, education or project record.
// Priority orders entries within a group: 0 is the most recent.
type ExperienceEntry struct {
	ID        string              `json:"id"`
	GroupType GroupType           `json:"group_type"`
	Priority  int                 `json:"priority"`
	StartDate string              `json:"start_date,omitempty"`
	EndDate   string              `json:"end_date,omitempty"`
	Fields    map[Taxonomy]string `json:"fields"`
	UpdatedAt time.Time           `json:"updated_at,omitempty"`
}

// Value returns the stored value of kind t, falling back to the entry dates.
// An education entry's end date doubles as its graduation date.
func (e ExperienceEntry) Value(t Taxonomy) (string, bool) {
	if v, ok := e.Fields[t]; ok && v != "" {
		return v, true
	}
	switch t {
	case StartDate:
		return e.StartDate, e.StartDate != ""
	case EndDate:
		return e.EndDate, e.EndDate != ""
	case GradDate:
		if e.GroupType == GroupEducation {
			return e.EndDate, e.EndDate != ""
		}
	}
	return "", false
}
