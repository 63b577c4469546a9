// Package types provides type definitions for structured data used throughout the form-autofill engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Taxonomy is the closed set of semantic field kinds the engine can assign.
type Taxonomy string

// Taxonomy members. UNKNOWN is the terminal kind for fields nothing recognizes.
const (
	FullName       Taxonomy = "FULL_NAME"
	FirstName      Taxonomy = "FIRST_NAME"
	LastName       Taxonomy = "LAST_NAME"
	Email          Taxonomy = "EMAIL"
	Phone          Taxonomy = "PHONE"
	CountryCode    Taxonomy = "COUNTRY_CODE"
	Location       Taxonomy = "LOCATION"
	City           Taxonomy = "CITY"
	LinkedIn       Taxonomy = "LINKEDIN"
	GitHub         Taxonomy = "GITHUB"
	Portfolio      Taxonomy = "PORTFOLIO"
	School         Taxonomy = "SCHOOL"
	Degree         Taxonomy = "DEGREE"
	Major          Taxonomy = "MAJOR"
	GradDate       Taxonomy = "GRAD_DATE"
	GradYear       Taxonomy = "GRAD_YEAR"
	GradMonth      Taxonomy = "GRAD_MONTH"
	StartDate      Taxonomy = "START_DATE"
	EndDate        Taxonomy = "END_DATE"
	WorkAuth       Taxonomy = "WORK_AUTH"
	NeedSponsor    Taxonomy = "NEED_SPONSORSHIP"
	ResumeText     Taxonomy = "RESUME_TEXT"
	Salary         Taxonomy = "SALARY"
	EEOGender      Taxonomy = "EEO_GENDER"
	EEORace        Taxonomy = "EEO_RACE"
	EEOVeteran     Taxonomy = "EEO_VETERAN"
	EEODisability  Taxonomy = "EEO_DISABILITY"
	GovID          Taxonomy = "GOV_ID"
	Summary        Taxonomy = "SUMMARY"
	GPA            Taxonomy = "GPA"
	CompanyName    Taxonomy = "COMPANY_NAME"
	JobTitle       Taxonomy = "JOB_TITLE"
	JobDescription Taxonomy = "JOB_DESCRIPTION"
	Skills         Taxonomy = "SKILLS"
	Unknown        Taxonomy = "UNKNOWN"
)

// taxonomyDescriptions holds the one-line description sent to classifiers.
// Order matters: it is the order members are listed in prompts.
var taxonomyDescriptions = []struct {
	Type        Taxonomy
	Description string
}{
	{FullName, "Full name of the applicant in a single field"},
	{FirstName, "Given / first name"},
	{LastName, "Family / last name / surname"},
	{Email, "Email address"},
	{Phone, "Phone or mobile number"},
	{CountryCode, "Phone country calling code selector, e.g. +1"},
	{Location, "Current location or full address"},
	{City, "City of residence"},
	{LinkedIn, "LinkedIn profile URL"},
	{GitHub, "GitHub profile URL"},
	{Portfolio, "Personal website or portfolio URL"},
	{School, "School, college or university name"},
	{Degree, "Degree or education level obtained"},
	{Major, "Major, field of study or discipline"},
	{GradDate, "Graduation date (full date or year-month)"},
	{GradYear, "Graduation year only"},
	{GradMonth, "Graduation month only"},
	{StartDate, "Start date of a job, study or project entry"},
	{EndDate, "End date of a job, study or project entry"},
	{WorkAuth, "Whether the applicant is legally authorized to work"},
	{NeedSponsor, "Whether the applicant needs visa sponsorship"},
	{ResumeText, "Resume / CV pasted as plain text"},
	{Salary, "Expected or desired salary"},
	{EEOGender, "Voluntary self-identification of gender"},
	{EEORace, "Voluntary self-identification of race or ethnicity"},
	{EEOVeteran, "Veteran status"},
	{EEODisability, "Disability status"},
	{GovID, "Government-issued ID number such as SSN or national ID"},
	{Summary, "Short professional summary or cover letter text"},
	{GPA, "Grade point average"},
	{CompanyName, "Employer or company name of a work entry"},
	{JobTitle, "Job title or position of a work entry"},
	{JobDescription, "Description of responsibilities in a work or project entry"},
	{Skills, "Skills, technologies or competencies"},
}

var (
	taxonomySet = func() map[Taxonomy]bool {
		m := make(map[Taxonomy]bool, len(taxonomyDescriptions)+1)
		for _, d := range taxonomyDescriptions {
			m[d.Type] = true
		}
		m[Unknown] = true
		return m
	}()

	sensitiveTypes = map[Taxonomy]bool{
		EEOGender:     true,
		EEORace:       true,
		EEOVeteran:    true,
		EEODisability: true,
		GovID:         true,
	}
)

// AllTypes returns every classifiable member in prompt order (UNKNOWN excluded).
func AllTypes() []Taxonomy {
	out := make([]Taxonomy, 0, len(taxonomyDescriptions))
	for _, d := range taxonomyDescriptions {
		out = append(out, d.Type)
	}
	return out
}

// Description returns the one-line description of t, or "" for UNKNOWN.
func (t Taxonomy) Description() string {
	for _, d := range taxonomyDescriptions {
		if d.Type == t {
			return d.Description
		}
	}
	return ""
}

// Valid reports whether t is a taxonomy member (UNKNOWN included).
func (t Taxonomy) Valid() bool {
	return taxonomySet[t]
}

// Sensitive reports whether values of this kind must never be auto-filled.
func (t Taxonomy) Sensitive() bool {
	return sensitiveTypes[t]
}

// ParseTaxonomy normalizes a wire name such as "first_name" or "First Name".
// The second return value is false when the name is not a member.
func ParseTaxonomy(s string) (Taxonomy, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	t := Taxonomy(norm)
	if !t.Valid() {
		return Unknown, false
	}
	return t, true
}

// GroupType identifies the kind of repeated block a field belongs to.
type GroupType string

// Group types for repeated form blocks.
const (
	GroupWork      GroupType = "WORK"
	GroupEducation GroupType = "EDUCATION"
	GroupProject   GroupType = "PROJECT"
)

// GroupTypes lists every group type in detection order.
func GroupTypes() []GroupType {
	return []GroupType{GroupWork, GroupEducation, GroupProject}
}

// Valid reports whether g is a known group type.
func (g GroupType) Valid() bool {
	switch g {
	case GroupWork, GroupEducation, GroupProject:
		return true
	}
	return false
}
