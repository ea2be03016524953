package extraction

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/jd-matcher/internal/oracle"
	"github.com/spigell/jd-matcher/internal/patterns"
)

// Strategy resolves one field from a document. The second result reports
// whether the strategy produced a value.
type Strategy func(doc *Document) (string, bool)

const maxRoleLength = 100

var lowInformationOrgs = map[string]struct{}{"hr": {}, "recruitment": {}, "team": {}}

func companyFromEntities(doc *Document) (string, bool) {
	seen := make(map[string]struct{})
	var candidates []string
	for _, e := range oracle.Filter(doc.Entities(), oracle.LabelOrg) {
		name := strings.TrimSpace(e.Text)
		if utf8.RuneCountInString(name) <= 2 {
			continue
		}
		if _, ok := lowInformationOrgs[strings.ToLower(name)]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(candidates[i]), utf8.RuneCountInString(candidates[j])
		if li != lj {
			return li > lj
		}
		return candidates[i] < candidates[j]
	})

	for _, c := range candidates {
		for _, suffix := range patterns.LegalSuffixes {
			if strings.Contains(c, suffix) {
				return c, true
			}
		}
	}
	return candidates[0], true
}

func companyFromParser(doc *Document) (string, bool) {
	best := ""
	for _, e := range oracle.Filter(doc.ParsedEntities(), oracle.LabelOrg) {
		name := strings.TrimSpace(e.Text)
		if utf8.RuneCountInString(name) > utf8.RuneCountInString(best) {
			best = name
		}
	}
	return best, best != ""
}

func companyFromLabel(doc *Document) (string, bool) {
	return firstGroup(doc.Text, patterns.CompanyLabel)
}

func companyFromLegalName(doc *Document) (string, bool) {
	return firstGroup(doc.Text, patterns.CompanyLegalName)
}

func companyFromCapitalPhrase(doc *Document) (string, bool) {
	for _, m := range patterns.CapitalPhrase.FindAllStringSubmatch(doc.Text, -1) {
		candidate := strings.TrimSpace(m[1])
		if isStructuralHeader(candidate) {
			continue
		}
		if len(strings.Fields(candidate)) > 1 {
			return candidate, true
		}
	}
	return "", false
}

func isStructuralHeader(s string) bool {
	for _, h := range patterns.StructuralHeaders {
		if s == h {
			return true
		}
	}
	return false
}

func roleFromLabel(doc *Document) (string, bool) {
	m := patterns.RoleLabel.FindStringSubmatch(doc.Text)
	if m == nil {
		return "", false
	}

	role := strings.TrimSpace(m[1])
	role = patterns.RoleFiller.ReplaceAllString(role, "")
	role = patterns.RolePrefix.ReplaceAllString(role, "")
	role = strings.TrimSpace(patterns.RoleBreak.Split(role, 2)[0])
	role = truncateRunes(role, maxRoleLength)
	return role, role != ""
}

func roleFromNoun(doc *Document) (string, bool) {
	return firstGroup(doc.Text, patterns.RoleNounLine)
}

func keywordStrategy(keywords []patterns.Keyword, lower bool) Strategy {
	return func(doc *Document) (string, bool) {
		text := doc.Text
		if lower {
			text = doc.Lower
		}
		for _, kw := range keywords {
			if kw.Pattern.MatchString(text) {
				return kw.Value, true
			}
		}
		return "", false
	}
}

func locationFromLabel(doc *Document) (string, bool) {
	m := patterns.LocationLabel.FindStringSubmatch(doc.Lower)
	if m == nil {
		return "", false
	}
	loc := strings.TrimSpace(m[1])
	if utf8.RuneCountInString(loc) <= 3 {
		return "", false
	}
	return cases.Title(language.English).String(strings.Join(strings.Fields(loc), " ")), true
}

func locationRemote(doc *Document) (string, bool) {
	return "Remote", patterns.RemoteWork.MatchString(doc.Lower)
}

func locationPan(doc *Document) (string, bool) {
	return "Pan", patterns.PanIndia.MatchString(doc.Lower)
}

func locationFromParser(doc *Document) (string, bool) {
	for _, e := range oracle.Filter(doc.ParsedEntities(), oracle.LabelGPE, oracle.LabelLoc, oracle.LabelFac) {
		if loc := strings.TrimSpace(e.Text); loc != "" {
			return loc, true
		}
	}
	return "", false
}

func experienceFromPatterns(doc *Document) (string, bool) {
	for _, re := range patterns.Experience {
		if v, ok := firstGroup(doc.Text, re); ok {
			return v, true
		}
	}
	return "", false
}

func experienceFresher(doc *Document) (string, bool) {
	return "Fresher", patterns.Fresher.MatchString(doc.Text)
}

// ExperienceRange converts a raw experience value into bounds. A range whose
// lower bound exceeds the upper bound is swapped so that min <= max.
func ExperienceRange(raw string) (Years, Years) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == NA {
		return Years{}, Years{}
	}
	if strings.EqualFold(raw, "fresher") {
		return YearsOf(0), YearsOf(0)
	}

	if m := patterns.ExperienceRange.FindStringSubmatch(raw); m != nil {
		lo, errLo := strconv.Atoi(m[1])
		hi, errHi := strconv.Atoi(m[2])
		if errLo == nil && errHi == nil {
			if lo > hi {
				lo, hi = hi, lo
			}
			return YearsOf(lo), YearsOf(hi)
		}
	}

	if m := patterns.ExperienceValue.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return YearsOf(v), YearsOf(v)
		}
	}
	return Years{}, Years{}
}

func qualification(doc *Document) (string, bool) {
	degree := patterns.Degree.FindString(doc.Text)
	if degree == "" {
		return "", false
	}
	if stream := patterns.Stream.FindString(doc.Text); stream != "" {
		return degree + " in " + stream, true
	}
	return degree, true
}

func salaryFromPatterns(doc *Document) (string, bool) {
	for _, re := range patterns.Salary {
		if m := re.FindString(doc.Lower); m != "" {
			if v := sanitizeSalary(m); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func salaryFromParser(doc *Document) (string, bool) {
	for _, e := range oracle.Filter(doc.ParsedEntities(), oracle.LabelMoney) {
		if !patterns.Digit.MatchString(e.Text) {
			continue
		}
		if v := sanitizeSalary(e.Text); v != "" {
			return v, true
		}
	}
	return "", false
}

func sanitizeSalary(s string) string {
	return strings.TrimSpace(patterns.SalaryNoise.ReplaceAllString(s, ""))
}

func jobTypeTech(doc *Document) (string, bool) {
	return "Tech", patterns.TechRole.MatchString(doc.Text)
}

func jobTypeNonTech(doc *Document) (string, bool) {
	return "Non-Tech", patterns.NonTechRole.MatchString(doc.Text)
}

func responsibilities(maxChars int) Strategy {
	return func(doc *Document) (string, bool) {
		text := doc.Text
		var sections []string
		found := false
		for pos := 0; pos < len(text); {
			loc := patterns.ResponsibilitiesHeader.FindStringIndex(text[pos:])
			if loc == nil {
				break
			}
			found = true
			start := pos + loc[1]
			end := len(text)
			if stop := patterns.SectionEnd.FindStringIndex(text[start:]); stop != nil {
				end = start + stop[0]
			}
			sections = append(sections, strings.TrimSpace(text[start:end]))
			pos = end
		}
		if !found {
			return "", false
		}

		body := strings.Join(sections, " ")
		body = strings.TrimSpace(patterns.BlankLines.ReplaceAllString(body, "\n"))
		if body == "" {
			return "", false
		}
		if utf8.RuneCountInString(body) > maxChars {
			body = strings.TrimRight(truncateRunes(body, maxChars), " \t\r\n") + "..."
		}
		return body, true
	}
}

func firstGroup(text string, re *regexp.Regexp) (string, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
