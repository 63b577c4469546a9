// Package classify turns field descriptors into ranked taxonomy candidates by
// combining the rule cascade with the batched statistical classifier.
package classify

import (
	"sort"

	"github.com/jonathan/form-autofill/internal/types"
)

// NoMatchReason is attached to the synthesized UNKNOWN candidate.
const NoMatchReason = "no match found"

// Merge folds candidate lists by type. A repeated type keeps the higher
// score and accumulates the reasons of every contribution. The result is
// sorted by descending score and is never empty.
func Merge(lists ...[]types.Candidate) []types.Candidate {
	var out []types.Candidate
	pos := make(map[types.Taxonomy]int)

	for _, list := range lists {
		for _, c := range list {
			if i, ok := pos[c.Type]; ok {
				if c.Score > out[i].Score {
					out[i].Score = types.ClampScore(c.Score)
				}
				out[i].Reasons = append(out[i].Reasons, c.Reasons...)
				continue
			}
			pos[c.Type] = len(out)
			out = append(out, types.Candidate{
				Type:    c.Type,
				Score:   types.ClampScore(c.Score),
				Reasons: append([]string(nil), c.Reasons...),
			})
		}
	}

	if len(out) == 0 {
		return []types.Candidate{{Type: types.Unknown, Score: 0, Reasons: []string{NoMatchReason}}}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
