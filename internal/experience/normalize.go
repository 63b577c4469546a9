package experience

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/form-autofill/internal/transform"
	"github.com/jonathan/form-autofill/internal/types"
)

// Normalize applies all normalization steps to a profile. Every invalid
// entry is reported, joined into one error.
func Normalize(profile *types.Profile) error {
	if err := errors.Join(NormalizeAnswers(profile.Answers), NormalizeExperiences(profile.Experiences)); err != nil {
		return err
	}
	AssignPriorities(profile.Experiences)
	return nil
}

// NormalizeAnswers canonicalizes answer types and derives sensitivity. It
// returns one *NormalizationError per invalid answer.
func NormalizeAnswers(answers []types.AnswerValue) error {
	var errs []error
	for i := range answers {
		a := &answers[i]
		typ, ok := types.ParseTaxonomy(string(a.Type))
		if !ok || typ == types.Unknown {
			errs = append(errs, &NormalizationError{
				Section: "answers", Index: i, Field: "type",
				Reason: fmt.Sprintf("invalid answer type '%s'", a.Type),
			})
			continue
		}
		a.Type = typ
		a.Value = strings.TrimSpace(a.Value)
		if a.Value == "" {
			errs = append(errs, &NormalizationError{
				Section: "answers", Index: i, Field: "value",
				Reason: fmt.Sprintf("empty value for %s answer", typ),
			})
			continue
		}
		if a.Display == "" {
			a.Display = a.Value
		}
		a.ApplySensitivity()
	}
	return errors.Join(errs...)
}

// NormalizeExperiences canonicalizes group types and entry field keys. It
// returns one *NormalizationError per invalid group or field key.
func NormalizeExperiences(entries []types.ExperienceEntry) error {
	var errs []error
	for i := range entries {
		e := &entries[i]
		group := types.GroupType(strings.ToUpper(strings.TrimSpace(string(e.GroupType))))
		if !group.Valid() {
			errs = append(errs, &NormalizationError{
				Section: "experiences", Index: i, Field: "group_type",
				Reason: fmt.Sprintf("invalid group_type '%s'", e.GroupType),
			})
			continue
		}
		e.GroupType = group

		fields := make(map[types.Taxonomy]string, len(e.Fields))
		valid := true
		for k, v := range e.Fields {
			typ, ok := types.ParseTaxonomy(string(k))
			if !ok || typ == types.Unknown {
				errs = append(errs, &NormalizationError{
					Section: "experiences", Index: i, Field: "fields." + string(k),
					Reason: fmt.Sprintf("invalid field for %s entry", group),
				})
				valid = false
				continue
			}
			fields[typ] = strings.TrimSpace(v)
		}
		if valid {
			e.Fields = fields
		}
	}
	return errors.Join(errs...)
}

// AssignPriorities gives each group's entries unique priorities. A group whose
// priorities are already exactly 0..n-1 is left alone; otherwise entries are
// renumbered by start date, most recent first.
func AssignPriorities(entries []types.ExperienceEntry) {
	byGroup := make(map[types.GroupType][]int)
	for i, e := range entries {
		byGroup[e.GroupType] = append(byGroup[e.GroupType], i)
	}

	for _, idxs := range byGroup {
		if prioritiesValid(entries, idxs) {
			continue
		}
		sort.SliceStable(idxs, func(a, b int) bool {
			return dateKey(entries[idxs[a]].StartDate) > dateKey(entries[idxs[b]].StartDate)
		})
		for p, i := range idxs {
			entries[i].Priority = p
		}
	}
}

func prioritiesValid(entries []types.ExperienceEntry, idxs []int) bool {
	seen := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		p := entries[i].Priority
		if p < 0 || p >= len(idxs) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// dateKey orders dates; unparseable dates sort oldest.
func dateKey(s string) int {
	d, ok := transform.ParseDate(s)
	if !ok {
		return -1
	}
	return d.Year*10000 + d.Month*100 + d.Day
}
