// Package patterns holds the compiled regular expressions used by the field
// extractors. Every expression is compiled once at init and is safe for
// concurrent use.
package patterns

import "regexp"

// Company.
var (
	CompanyLabel     = regexp.MustCompile(`(?i)(?:Company|Organization|Employer)[:\-][ \t]*([A-Za-z&.,\t ]+)`)
	CompanyLegalName = regexp.MustCompile(`\b([A-Z][A-Za-z& ]+(?:Ltd|Limited|Pvt|Corporation|Inc|Company))\b`)
	CapitalPhrase    = regexp.MustCompile(`\b([A-Z][A-Za-z& ]{2,})\b`)
)

// LegalSuffixes mark an organization name as a registered entity.
var LegalSuffixes = []string{"Ltd", "Limited", "Pvt", "LLC", "Inc", "Corporation", "Technologies", "Company", "Enterprises"}

// StructuralHeaders are capitalized phrases that are section titles, never company names.
var StructuralHeaders = []string{
	"Job Description", "Job Role", "Job Title", "Role", "Position", "Responsibilities",
	"Key Responsibilities", "Roles and Responsibilities", "Requirements", "Qualifications",
}

// Job role.
var (
	RoleLabel    = regexp.MustCompile(`(?i)(?:Job Title|Role|Designation|Position|Title)[:\-]?\s*(.*?)(?:\n|$)`)
	RoleFiller   = regexp.MustCompile(`(?i)^(?:we are (?:looking|hiring)|looking for|hiring for|openings for)\s+`)
	RolePrefix   = regexp.MustCompile(`(?i)^(?:Role|Designation|Position)\s*[:\-]?\s*`)
	RoleBreak    = regexp.MustCompile(`[,\-;]`)
	RoleNounLine = regexp.MustCompile(`([A-Z][A-Za-z\s]+(?:Engineer|Analyst|Developer|Manager|Scientist|Architect|Intern|Trainee|Specialist)[A-Za-z\s]*)`)
)

// Keyword is a pattern paired with the value it resolves to.
type Keyword struct {
	Pattern *regexp.Regexp
	Value   string
}

// EmploymentTypes are tried in order against lower-cased text.
var EmploymentTypes = []Keyword{
	{regexp.MustCompile(`\bintern(?:ship)?\b`), "Internship"},
	{regexp.MustCompile(`\bfull[- ]?time\b`), "Full-time"},
	{regexp.MustCompile(`\bpart[- ]?time\b`), "Part-time"},
	{regexp.MustCompile(`\bcontract\b`), "Contract"},
	{regexp.MustCompile(`\bfresher\b`), "Fresher"},
}

// Location. LocationLabel runs against lower-cased text; the value may
// start on the line after the label but never spans lines.
var (
	LocationLabel = regexp.MustCompile(`(?:\blocation|work\s+location|office\s+location|job\s+location|based\s+in|city|workplace|office):?[ \t]*(?:\r?\n[ \t]*)?([a-z][a-z \t]*?)[ \t]*(?:,|;|\n|\r|$)`)
	RemoteWork    = regexp.MustCompile(`\b(?:remote|work from home|wfh|telecommute|anywhere in the world)\b`)
	PanIndia      = regexp.MustCompile(`\bpan\b`)
)

// Experience patterns are tried in order; the first group is the raw value.
var (
	Experience = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+\s*(?:-|to)\s*\d+\s*(?:years?|yrs?))`),
		regexp.MustCompile(`(?i)(\d+\+?\s*(?:years?|yrs?))`),
		regexp.MustCompile(`(?i)minimum\s+of\s+(\d+\s*(?:years?|yrs?))`),
		regexp.MustCompile(`(?i)upto\s+(\d+\s*(?:years?|yrs?))`),
	}
	Fresher         = regexp.MustCompile(`(?i)\bfreshers?\b`)
	ExperienceRange = regexp.MustCompile(`(?i)^(\d+)\s*(?:-|to)\s*(\d+)`)
	ExperienceValue = regexp.MustCompile(`^(\d+)`)
)

// Qualification. Stream acronyms IT and CS are case-sensitive so that the
// pronoun "it" is not read as a stream.
var (
	Degree = regexp.MustCompile(`(?i)\b(?:B\.?\s?E\.?|B\.?\s?Tech|M\.?\s?Tech|B\.?\s?Sc|M\.?\s?Sc|MBA|PGDM|Ph\.?\s?D|Diploma|B\.?\s?Com|M\.?\s?Com|CA|Bachelor|Master)\b`)
	Stream = regexp.MustCompile(`\b(?:(?i:Computer|Information|Electronics|Mechanical|Civil|Data Science|Biotechnology|Engg)|IT|CS)\b`)
)

// WorkModes are tried in order, case-insensitively.
var WorkModes = []Keyword{
	{regexp.MustCompile(`(?i)remote|work from home`), "Remote"},
	{regexp.MustCompile(`(?i)hybrid`), "Hybrid"},
	{regexp.MustCompile(`(?i)onsite|on-site|office`), "Onsite"},
}

// Salary patterns run against lower-cased text, in order.
var (
	Salary = []*regexp.Regexp{
		regexp.MustCompile(`(?:₹|\binr)\s?\d{1,3}(?:,\d{2,3})*(?:\s*(?:-|\sto)\s*(?:₹|inr)?\s?\d{1,3}(?:,\d{2,3})*)?(?:\s*(?:lpa|lakhs?|per\s*annum|pa|per\s*month)\b)?`),
		regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:-|\sto)\s*\d+(?:\.\d+)?\s*(?:lpa|lakhs?|per\s*annum|pa|per\s*month)\b`),
		regexp.MustCompile(`\$\s?\d+(?:,\d+)*(?:\s*-\s*\$?\d+(?:,\d+)*)?\s*(?:usd|per\s*month|per\s*annum)\b`),
		regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:lpa|lakhs?|per\s*annum|pa|per\s*month)\b`),
	}
	SalaryNoise = regexp.MustCompile(`[^0-9a-zA-Z\s\-.,₹$]`)
	Digit       = regexp.MustCompile(`\d`)
)

// Job type keyword families.
var (
	TechRole    = regexp.MustCompile(`(?i)developer|engineer|scientist|architect|analyst|security|ai|ml|cloud|data`)
	NonTechRole = regexp.MustCompile(`(?i)hr|sales|marketing|finance|operations|account|trainee|manager`)
)

// Responsibilities. RE2 has no lookahead, so the section body is located by
// searching for SectionEnd after each ResponsibilitiesHeader match.
var (
	ResponsibilitiesHeader = regexp.MustCompile(`(?i)(?:Responsibilities|Key Responsibilities|Roles and Responsibilities|Duties|What You'll Do|Your Role|Tasks|Job Duties|Role and Responsibilities|Your Responsibilities)[:\-]?\s*`)
	SectionEnd             = regexp.MustCompile(`(?i)\n\s*\n|Requirements|Qualifications|Skills|Experience|Eligibility|Benefits|How to Apply|About`)
	BlankLines             = regexp.MustCompile(`\n{2,}`)
)
