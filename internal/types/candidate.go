//nolint:revive // types is a standard Go package name pattern
package types

// Candidate is a scored hypothesis that a field is of a given kind.
type Candidate struct {
	Type    Taxonomy `json:"type"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// ClampScore bounds s to [0,1].
func ClampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// NewCandidate builds a candidate with a clamped score and a single reason.
func NewCandidate(t Taxonomy, score float64, reason string) Candidate {
	c := Candidate{Type: t, Score: ClampScore(score)}
	if reason != "" {
		c.Reasons = []string{reason}
	}
	return c
}
