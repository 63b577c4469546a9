// Package resolve ranks stored values for a classified field.
package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/transform"
	"github.com/jonathan/form-autofill/internal/types"
)

// related is the fallback adjacency table. A fallback survives only when
// the conversion changes the value.
var related = map[types.Taxonomy][]types.Taxonomy{
	types.FirstName:   {types.FullName},
	types.LastName:    {types.FullName},
	types.FullName:    {types.FirstName, types.LastName},
	types.GradYear:    {types.GradDate},
	types.GradMonth:   {types.GradDate},
	types.GradDate:    {types.GradYear, types.GradMonth},
	types.CountryCode: {types.Phone},
	types.Phone:       {types.CountryCode},
}

// Related returns the types whose values can be converted into t.
func Related(t types.Taxonomy) []types.Taxonomy {
	return related[t]
}

// Resolver looks up answers and experience entries for a classified field.
type Resolver struct {
	answers     store.AnswerStore
	experiences store.ExperienceStore
}

// New creates a resolver. experiences may be nil.
func New(answers store.AnswerStore, experiences store.ExperienceStore) *Resolver {
	return &Resolver{answers: answers, experiences: experiences}
}

// Resolve returns candidate values for field, classified as typ, ordered by
// priority then most recent update. sec is nil for unsectioned fields.
func (r *Resolver) Resolve(ctx context.Context, field types.FieldDescriptor, typ types.Taxonomy, sec *types.SectionContext) ([]types.ResolvedAnswer, error) {
	if typ == types.Unknown {
		return nil, nil
	}

	var out []types.ResolvedAnswer

	if sec != nil && r.experiences != nil {
		entry, err := r.experiences.GetByPriority(ctx, sec.GroupType, sec.BlockIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s entry %d: %w", sec.GroupType, sec.BlockIndex, err)
		}
		if entry != nil {
			if a, ok := experienceAnswer(entry, typ); ok {
				out = append(out, types.ResolvedAnswer{Answer: a, Value: a.Value, Priority: types.PriorityExperience})
			}
		}
	}

	direct, err := r.answers.GetByType(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s answers: %w", typ, err)
	}
	for _, a := range direct {
		out = append(out, types.ResolvedAnswer{Answer: a, Value: a.Value, Priority: types.PriorityDirect})
	}

	for _, rel := range Related(typ) {
		answers, err := r.answers.GetByType(ctx, rel)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s answers: %w", rel, err)
		}
		for _, a := range answers {
			v := transform.Convert(a.Value, rel, typ)
			if v == a.Value && rel != typ {
				continue
			}
			out = append(out, types.ResolvedAnswer{Answer: a, Value: v, Priority: types.PriorityRelated})
		}
	}

	if typ == types.FullName {
		composite, err := r.compositeName(ctx)
		if err != nil {
			return nil, err
		}
		if composite != nil {
			out = append(out, *composite)
		}
	}

	for i := range out {
		out[i].Value = transform.ForField(out[i].Value, typ, field)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Answer.UpdatedAt.After(out[j].Answer.UpdatedAt)
	})
	return out, nil
}

// compositeName joins the most recent first and last names.
func (r *Resolver) compositeName(ctx context.Context) (*types.ResolvedAnswer, error) {
	firsts, err := r.answers.GetByType(ctx, types.FirstName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s answers: %w", types.FirstName, err)
	}
	lasts, err := r.answers.GetByType(ctx, types.LastName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s answers: %w", types.LastName, err)
	}
	if len(firsts) == 0 || len(lasts) == 0 {
		return nil, nil
	}

	first, last := latest(firsts), latest(lasts)
	updated := first.UpdatedAt
	if last.UpdatedAt.After(updated) {
		updated = last.UpdatedAt
	}
	value := first.Value + " " + last.Value
	a := types.AnswerValue{
		ID:              first.ID + "+" + last.ID,
		Type:            types.FullName,
		Value:           value,
		Display:         value,
		AutofillAllowed: first.AutofillAllowed && last.AutofillAllowed,
		CreatedAt:       updated,
		UpdatedAt:       updated,
	}
	a.ApplySensitivity()
	return &types.ResolvedAnswer{Answer: a, Value: value, Priority: types.PriorityRelated}, nil
}

// experienceAnswer reads typ from an entry, converting from a related type
// stored on the entry when typ itself is absent.
func experienceAnswer(e *types.ExperienceEntry, typ types.Taxonomy) (types.AnswerValue, bool) {
	v, ok := e.Value(typ)
	if !ok {
		for _, rel := range Related(typ) {
			rv, rok := e.Value(rel)
			if !rok {
				continue
			}
			if cv := transform.Convert(rv, rel, typ); cv != rv {
				v, ok = cv, true
				break
			}
		}
	}
	if !ok {
		return types.AnswerValue{}, false
	}

	a := types.AnswerValue{
		ID:              e.ID + ":" + string(typ),
		Type:            typ,
		Value:           v,
		Display:         v,
		AutofillAllowed: true,
		CreatedAt:       e.UpdatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	a.ApplySensitivity()
	return a, true
}

func latest(answers []types.AnswerValue) types.AnswerValue {
	best := answers[0]
	for _, a := range answers[1:] {
		if a.UpdatedAt.After(best.UpdatedAt) {
			best = a
		}
	}
	return best
}
