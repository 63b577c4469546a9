package parsers

import (
	"github.com/jonathan/form-autofill/internal/types"
)

// sectionOnlyDiscount applies when a pattern matches the section title but
// not the field's own label.
const sectionOnlyDiscount = 0.9

// labelPatterns are bilingual (English / Chinese) label and section text rules.
var labelPatterns = []pattern{
	newPattern(`first name|given name|forename|^名$|名字`, types.FirstName, 0.90),
	newPattern(`last name|surname|family name|^姓$|姓氏`, types.LastName, 0.90),
	newPattern(`full name|legal name|^name\b|^your name|姓名`, types.FullName, 0.85),
	newPattern(`e-?mail|邮箱|电子邮件`, types.Email, 0.90),
	newPattern(`country code|dial(ing)? code|calling code|区号|国家代码`, types.CountryCode, 0.90),
	newPattern(`phone|mobile|telephone|\bcell\b|电话|手机`, types.Phone, 0.85).without(`code|区号`),
	newPattern(`linkedin|领英`, types.LinkedIn, 0.90),
	newPattern(`github`, types.GitHub, 0.90),
	newPattern(`portfolio|website|personal site|作品集|个人网站|个人主页`, types.Portfolio, 0.85),
	newPattern(`\bcity\b|城市`, types.City, 0.85),
	newPattern(`location|address|地址|所在地`, types.Location, 0.80).without(`e-?mail`),
	newPattern(`school|university|college|institution|学校|院校|大学`, types.School, 0.90),
	newPattern(`degree|education level|学历|学位`, types.Degree, 0.85),
	newPattern(`\bmajor\b|field of study|discipline|专业`, types.Major, 0.90),
	newPattern(`graduation year|year of graduation|毕业年份`, types.GradYear, 0.90),
	newPattern(`graduation month|month of graduation|毕业月份`, types.GradMonth, 0.90),
	newPattern(`graduation date|date of graduation|毕业时间|毕业日期`, types.GradDate, 0.85),
	newPattern(`start date|^from$|开始时间|入职时间|起始时间`, types.StartDate, 0.80),
	newPattern(`end date|^to$|结束时间|离职时间|截止时间`, types.EndDate, 0.80),
	newPattern(`authori[sz]ed to work|work authori[sz]ation|legally (authori[sz]ed|eligible)|eligible to work|工作许可`, types.WorkAuth, 0.90),
	newPattern(`sponsor|签证担保`, types.NeedSponsor, 0.90),
	newPattern(`resume|\bcv\b|简历`, types.ResumeText, 0.80),
	newPattern(`salary|compensation|pay expectation|薪资|薪酬`, types.Salary, 0.90),
	newPattern(`gender|\bsex\b|性别`, types.EEOGender, 0.90),
	newPattern(`\brace\b|ethnicity|民族`, types.EEORace, 0.90),
	newPattern(`veteran|退伍`, types.EEOVeteran, 0.90),
	newPattern(`disabilit|残疾`, types.EEODisability, 0.90),
	newPattern(`social security|\bssn\b|national id|身份证`, types.GovID, 0.90),
	newPattern(`summary|about (you|yourself)|cover letter|自我介绍|自我评价`, types.Summary, 0.80),
	newPattern(`\bgpa\b|grade point|绩点`, types.GPA, 0.90),
	newPattern(`company|employer|organi[sz]ation|公司|单位`, types.CompanyName, 0.85),
	newPattern(`job title|position|\btitle\b|\brole\b|职位|岗位`, types.JobTitle, 0.80),
	newPattern(`description|responsibilities|duties|工作内容|职责|描述`, types.JobDescription, 0.80),
	newPattern(`\bskills?\b|技能`, types.Skills, 0.85),
}

// LabelParser matches label and section title text against a pattern table.
type LabelParser struct {
	patterns []pattern
}

// NewLabelParser creates the label parser with the built-in table.
func NewLabelParser() *LabelParser {
	return &LabelParser{patterns: labelPatterns}
}

// Name identifies the parser in candidate reasons.
func (p *LabelParser) Name() string { return "label" }

// Priority is 4.
func (p *LabelParser) Priority() int { return 4 }

// CanParse reports whether the field has any label-like text.
func (p *LabelParser) CanParse(field types.FieldDescriptor) bool {
	return labelText(field) != "" || field.SectionTitle != ""
}

// Parse scores label matches at full weight and section-title-only matches
// at a discount.
func (p *LabelParser) Parse(field types.FieldDescriptor) []types.Candidate {
	label := labelText(field)
	section := normalizeText(field.SectionTitle)

	var out []types.Candidate
	for _, pat := range p.patterns {
		switch {
		case pat.matches(label):
			out = append(out, types.NewCandidate(pat.typ, pat.score, "label \""+label+"\" ~ "+pat.re.String()))
		case pat.matches(section):
			out = append(out, types.NewCandidate(pat.typ, pat.score*sectionOnlyDiscount, "section \""+section+"\" ~ "+pat.re.String()))
		}
	}
	return out
}

// labelText falls back from the visible label to aria-label, then placeholder.
func labelText(field types.FieldDescriptor) string {
	for _, s := range []string{field.Label, field.AriaLabel, field.Placeholder} {
		if t := normalizeText(s); t != "" {
			return t
		}
	}
	return ""
}
