package parsers

import (
	"github.com/jonathan/form-autofill/internal/types"
)

// nameIDPatterns run against the normalized name and id attributes.
var nameIDPatterns = []pattern{
	newPattern(`(^|_)(first_?name|fname|given_?name|forename)($|_)`, types.FirstName, 0.95),
	newPattern(`(^|_)(last_?name|lname|surname|family_?name)($|_)`, types.LastName, 0.95),
	newPattern(`(^|_)(full_?name|candidate_?name|applicant_?name|legal_?name)($|_)|^name$`, types.FullName, 0.85),
	newPattern(`e_?mail`, types.Email, 0.95),
	newPattern(`(country|dial|calling|phone)_?code`, types.CountryCode, 0.90),
	newPattern(`phone|mobile|(^|_)tel(ephone)?($|_)|(^|_)cell`, types.Phone, 0.90).without(`code`),
	newPattern(`linkedin`, types.LinkedIn, 0.95),
	newPattern(`github`, types.GitHub, 0.95),
	newPattern(`portfolio|website|personal_?site|homepage`, types.Portfolio, 0.85),
	newPattern(`(^|_)city($|_)`, types.City, 0.85),
	newPattern(`location|address`, types.Location, 0.80).without(`e_?mail`),
	newPattern(`school|university|college|institution`, types.School, 0.90),
	newPattern(`degree`, types.Degree, 0.90),
	newPattern(`(^|_)major($|_)|field_?of_?study|discipline`, types.Major, 0.90),
	newPattern(`grad(uation)?_?year`, types.GradYear, 0.90),
	newPattern(`grad(uation)?_?month`, types.GradMonth, 0.90),
	newPattern(`grad(uation)?_?date`, types.GradDate, 0.90),
	newPattern(`start_?date|from_?date|date_?from|(^|_)start($|_)`, types.StartDate, 0.85),
	newPattern(`end_?date|to_?date|date_?to|(^|_)end($|_)`, types.EndDate, 0.85),
	newPattern(`work_?auth|authori[sz]|eligib`, types.WorkAuth, 0.85),
	newPattern(`sponsor`, types.NeedSponsor, 0.90),
	newPattern(`resume|(^|_)cv($|_)`, types.ResumeText, 0.80),
	newPattern(`salary|compensation|pay_?expect`, types.Salary, 0.90),
	newPattern(`gender|(^|_)sex($|_)`, types.EEOGender, 0.90),
	newPattern(`(^|_)race($|_)|ethnic`, types.EEORace, 0.90),
	newPattern(`veteran`, types.EEOVeteran, 0.90),
	newPattern(`disab`, types.EEODisability, 0.90),
	newPattern(`(^|_)ssn($|_)|social_?security|national_?id|gov(ernment)?_?id`, types.GovID, 0.95),
	newPattern(`summary|about_?me|cover_?letter`, types.Summary, 0.80),
	newPattern(`(^|_)gpa($|_)|grade_?point`, types.GPA, 0.95),
	newPattern(`company|employer|organi[sz]ation`, types.CompanyName, 0.85),
	newPattern(`job_?title|position|(^|_)role($|_)|(^|_)title($|_)`, types.JobTitle, 0.80),
	newPattern(`description|responsibilit|duties`, types.JobDescription, 0.80),
	newPattern(`skill`, types.Skills, 0.85),
}

// NameIDParser matches name/id substrings against a regex table.
type NameIDParser struct {
	patterns []pattern
}

// NewNameIDParser creates the name/id parser with the built-in table.
func NewNameIDParser() *NameIDParser {
	return &NameIDParser{patterns: nameIDPatterns}
}

// Name identifies the parser in candidate reasons.
func (p *NameIDParser) Name() string { return "name-id" }

// Priority is 3.
func (p *NameIDParser) Priority() int { return 3 }

// CanParse reports whether the field has a name or id.
func (p *NameIDParser) CanParse(field types.FieldDescriptor) bool {
	return field.Name != "" || field.ID != ""
}

// Parse returns one candidate per matching table row. Name and id are
// matched separately so "email" in one cannot combine with "code" in the other.
func (p *NameIDParser) Parse(field types.FieldDescriptor) []types.Candidate {
	idents := []string{normalizeIdent(field.Name), normalizeIdent(field.ID)}
	var out []types.Candidate
	for _, pat := range p.patterns {
		for _, ident := range idents {
			if pat.matches(ident) {
				out = append(out, types.NewCandidate(pat.typ, pat.score, "name/id "+ident+" ~ "+pat.re.String()))
				break
			}
		}
	}
	return out
}
