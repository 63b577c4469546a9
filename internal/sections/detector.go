// Package sections groups classified fields into repeated blocks (the first
// job, the second degree) so each block can be aligned with a stored entry.
package sections

import (
	"strings"

	"github.com/jonathan/form-autofill/internal/types"
)

// groupKeywords are matched against lowercased label and section text.
var groupKeywords = []struct {
	group    types.GroupType
	keywords []string
}{
	{types.GroupWork, []string{
		"company", "employer", "employment", "job", "position", "work experience",
		"work history", "professional experience", "internship",
		"公司", "工作", "职位", "实习", "任职",
	}},
	{types.GroupEducation, []string{
		"school", "university", "college", "degree", "education", "major",
		"academic", "学校", "教育", "学历", "学位", "专业", "院校",
	}},
	{types.GroupProject, []string{
		"project", "项目",
	}},
}

// typeGroups is the group implied by a field's type when no keyword matches.
var typeGroups = map[types.Taxonomy]types.GroupType{
	types.CompanyName: types.GroupWork,
	types.JobTitle:    types.GroupWork,
	types.School:      types.GroupEducation,
	types.Degree:      types.GroupEducation,
	types.Major:       types.GroupEducation,
	types.GPA:         types.GroupEducation,
	types.GradDate:    types.GroupEducation,
	types.GradYear:    types.GroupEducation,
	types.GradMonth:   types.GroupEducation,
}

// Result is the output of Detect.
type Result struct {
	Sections []types.Section
	byField  map[int]types.SectionContext
}

// Context returns the block a field belongs to.
func (r Result) Context(fieldIndex int) (types.SectionContext, bool) {
	ctx, ok := r.byField[fieldIndex]
	return ctx, ok
}

// Count returns the number of blocks of a group type on the page.
func (r Result) Count(group types.GroupType) int {
	n := 0
	for _, s := range r.Sections {
		if s.GroupType == group {
			n++
		}
	}
	return n
}

// Fields returns the field indexes of every block of a group type.
func (r Result) Fields(group types.GroupType) []int {
	var out []int
	for _, s := range r.Sections {
		if s.GroupType == group {
			out = append(out, s.Fields...)
		}
	}
	return out
}

type block struct {
	idx  int
	seen map[types.Taxonomy]bool
}

// Detect walks fields in scanner order. A field opens a new block when its
// group differs from the current block's or when its anchor changes. A field
// with a container anchor never splits its block on a repeated type, so
// "Start month" and "Start year" stay in one job. Without a container anchor
// a type that already appeared in the current block starts the next one.
// Fields without a group join the current block only if they share its
// non-empty anchor; otherwise they stay unsectioned.
func Detect(classes []types.Classification) Result {
	res := Result{byField: make(map[int]types.SectionContext)}
	counts := make(map[types.GroupType]int)
	var cur *block
	current := func() *types.Section { return &res.Sections[cur.idx] }

	for _, c := range classes {
		f := c.Field
		typ := c.Best().Type
		anchor := Anchor(f)
		group := GroupFor(f, typ)

		if group == "" {
			if cur == nil || anchor == "" || anchor != current().Anchor {
				continue
			}
			group = current().GroupType
		}

		repeated := f.SectionAnchor == "" && typ != types.Unknown && cur != nil && cur.seen[typ]
		if cur == nil || current().GroupType != group || anchor != current().Anchor || repeated {
			res.Sections = append(res.Sections, types.Section{
				GroupType:  group,
				BlockIndex: counts[group],
				Anchor:     anchor,
			})
			counts[group]++
			cur = &block{idx: len(res.Sections) - 1, seen: make(map[types.Taxonomy]bool)}
		}

		sec := current()
		sec.Fields = append(sec.Fields, f.Index)
		if typ != types.Unknown {
			cur.seen[typ] = true
		}
		res.byField[f.Index] = types.SectionContext{GroupType: group, BlockIndex: sec.BlockIndex}
	}

	return res
}

// Anchor is the block boundary identity of a field: its container anchor,
// falling back to the section title.
func Anchor(f types.FieldDescriptor) string {
	if f.SectionAnchor != "" {
		return f.SectionAnchor
	}
	return strings.TrimSpace(f.SectionTitle)
}

// GroupFor infers the group type from label keywords, then section title
// keywords, then the field's type. It returns "" when nothing matches.
func GroupFor(f types.FieldDescriptor, typ types.Taxonomy) types.GroupType {
	label := f.Label
	if label == "" {
		label = f.AriaLabel
	}
	if g := keywordGroup(label); g != "" {
		return g
	}
	if g := keywordGroup(f.SectionTitle); g != "" {
		return g
	}
	return typeGroups[typ]
}

func keywordGroup(text string) types.GroupType {
	text = strings.ToLower(text)
	if text == "" {
		return ""
	}
	for _, g := range groupKeywords {
		for _, kw := range g.keywords {
			if strings.Contains(text, kw) {
				return g.group
			}
		}
	}
	return ""
}
