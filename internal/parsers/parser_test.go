package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/types"
)

func findCandidate(cands []types.Candidate, typ types.Taxonomy) (types.Candidate, bool) {
	for _, c := range cands {
		if c.Type == typ {
			return c, true
		}
	}
	return types.Candidate{}, false
}

func TestDefaultRegistry_Order(t *testing.T) {
	r := DefaultRegistry()
	names := make([]string, 0, 4)
	for _, p := range r.Parsers() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"autocomplete", "input-kind", "name-id", "label"}, names)
}

func TestNewRegistry_SortsByPriority(t *testing.T) {
	r := NewRegistry(NewLabelParser(), NewAutocompleteParser(), NewNameIDParser())
	got := r.Parsers()
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Priority())
	assert.Equal(t, 3, got[1].Priority())
	assert.Equal(t, 4, got[2].Priority())
}

func TestAutocompleteParser(t *testing.T) {
	p := NewAutocompleteParser()

	tests := []struct {
		hint     string
		expected types.Taxonomy
		ok       bool
	}{
		{"email", types.Email, true},
		{"given-name", types.FirstName, true},
		{"section-apply shipping tel", types.Phone, true},
		{"tel-country-code", types.CountryCode, true},
		{"new-password", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			field := types.FieldDescriptor{Autocomplete: tt.hint}
			require.True(t, p.CanParse(field))
			cands := p.Parse(field)
			if !tt.ok {
				assert.Empty(t, cands)
				return
			}
			require.Len(t, cands, 1)
			assert.Equal(t, tt.expected, cands[0].Type)
			assert.Equal(t, 0.95, cands[0].Score)
		})
	}

	assert.False(t, p.CanParse(types.FieldDescriptor{Autocomplete: "off"}))
	assert.False(t, p.CanParse(types.FieldDescriptor{}))
}

func TestInputKindParser(t *testing.T) {
	p := NewInputKindParser()

	cands := p.Parse(types.FieldDescriptor{Kind: "email"})
	require.Len(t, cands, 1)
	assert.Equal(t, types.Email, cands[0].Type)
	assert.Equal(t, 0.90, cands[0].Score)

	cands = p.Parse(types.FieldDescriptor{Kind: "TEL"})
	require.Len(t, cands, 1)
	assert.Equal(t, types.Phone, cands[0].Type)

	assert.Empty(t, p.Parse(types.FieldDescriptor{Kind: "text"}))
}

func TestNameIDParser(t *testing.T) {
	p := NewNameIDParser()

	tests := []struct {
		name     string
		field    types.FieldDescriptor
		expected types.Taxonomy
	}{
		{"snake first name", types.FieldDescriptor{Name: "first_name"}, types.FirstName},
		{"camel last name", types.FieldDescriptor{ID: "lastName"}, types.LastName},
		{"email id", types.FieldDescriptor{ID: "applicant-email"}, types.Email},
		{"phone", types.FieldDescriptor{Name: "mobilePhone"}, types.Phone},
		{"country code", types.FieldDescriptor{Name: "phone_country_code"}, types.CountryCode},
		{"linkedin", types.FieldDescriptor{Name: "linkedin_url"}, types.LinkedIn},
		{"gpa", types.FieldDescriptor{Name: "education[0].gpa"}, types.GPA},
		{"company", types.FieldDescriptor{Name: "jobs[1][company]"}, types.CompanyName},
		{"ssn", types.FieldDescriptor{Name: "ssn"}, types.GovID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, p.CanParse(tt.field))
			c, ok := findCandidate(p.Parse(tt.field), tt.expected)
			require.True(t, ok, "expected %s candidate", tt.expected)
			assert.GreaterOrEqual(t, c.Score, 0.80)
			assert.LessOrEqual(t, c.Score, 0.95)
			assert.NotEmpty(t, c.Reasons)
		})
	}
}

func TestNameIDParser_PhoneCodeDoesNotYieldPhone(t *testing.T) {
	p := NewNameIDParser()
	cands := p.Parse(types.FieldDescriptor{Name: "phone_country_code"})
	_, hasPhone := findCandidate(cands, types.Phone)
	assert.False(t, hasPhone)
}

func TestNameIDParser_EmailAddressIsNotLocation(t *testing.T) {
	p := NewNameIDParser()
	cands := p.Parse(types.FieldDescriptor{Name: "email_address"})
	_, hasLocation := findCandidate(cands, types.Location)
	assert.False(t, hasLocation)
	_, hasEmail := findCandidate(cands, types.Email)
	assert.True(t, hasEmail)
}

func TestLabelParser(t *testing.T) {
	p := NewLabelParser()

	tests := []struct {
		name     string
		field    types.FieldDescriptor
		expected types.Taxonomy
		score    float64
	}{
		{"english email", types.FieldDescriptor{Label: "Email Address"}, types.Email, 0.90},
		{"chinese email", types.FieldDescriptor{Label: "邮箱"}, types.Email, 0.90},
		{"chinese school", types.FieldDescriptor{Label: "学校名称"}, types.School, 0.90},
		{"given name", types.FieldDescriptor{Label: "Given Name"}, types.FirstName, 0.90},
		{"aria fallback", types.FieldDescriptor{AriaLabel: "Mobile phone"}, types.Phone, 0.85},
		{"sponsorship", types.FieldDescriptor{Label: "Will you now or in the future require sponsorship?"}, types.NeedSponsor, 0.90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := findCandidate(p.Parse(tt.field), tt.expected)
			require.True(t, ok)
			assert.InDelta(t, tt.score, c.Score, 1e-9)
		})
	}
}

func TestLabelParser_SectionOnlyDiscount(t *testing.T) {
	p := NewLabelParser()
	field := types.FieldDescriptor{Label: "Number", SectionTitle: "Phone"}

	c, ok := findCandidate(p.Parse(field), types.Phone)
	require.True(t, ok)
	assert.InDelta(t, 0.85*0.9, c.Score, 1e-9)
	assert.Contains(t, c.Reasons[0], "section")
}

func TestRegistry_RunsAllParsers(t *testing.T) {
	r := DefaultRegistry()
	field := types.FieldDescriptor{Name: "first_name", Label: "Given Name"}

	cands := r.Run(field)
	var firstNames []types.Candidate
	for _, c := range cands {
		if c.Type == types.FirstName {
			firstNames = append(firstNames, c)
		}
	}
	// name/id and label both fire: no short-circuit.
	assert.Len(t, firstNames, 2)
}

func TestRegistry_ScoresInRange(t *testing.T) {
	r := DefaultRegistry()
	fields := []types.FieldDescriptor{
		{Name: "first_name", Label: "First Name", Autocomplete: "given-name"},
		{Kind: "email", Label: "E-mail", SectionTitle: "Contact"},
		{Name: "salary_expectation", Label: "Expected salary"},
		{Label: "性别", SectionTitle: "自愿披露"},
	}
	for _, f := range fields {
		for _, c := range r.Run(f) {
			assert.GreaterOrEqual(t, c.Score, 0.0)
			assert.LessOrEqual(t, c.Score, 1.0)
		}
	}
}

func TestNormalizeIdent(t *testing.T) {
	assert.Equal(t, "first_name", normalizeIdent("firstName"))
	assert.Equal(t, "first_name", normalizeIdent("First Name"))
	assert.Equal(t, "jobs_1_company", normalizeIdent("jobs[1][company]"))
	assert.Equal(t, "education_0_gpa", normalizeIdent("education[0].gpa"))
}
