package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jd-matcher/internal/oracle"
	"github.com/spigell/jd-matcher/internal/vocabulary"
)

const testVocabulary = `skill,type
python,tech
sql,tech
docker,tech
communication,soft
leadership,soft
`

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Vocabulary == nil {
		v, err := vocabulary.Parse(strings.NewReader(testVocabulary))
		if err != nil {
			t.Fatalf("parse vocabulary: %v", err)
		}
		cfg.Vocabulary = v
	}
	if cfg.Recognizer == nil {
		cfg.Recognizer = oracle.Nop{}
	}
	return New(cfg)
}

type failingRecognizer struct{}

func (failingRecognizer) Recognize(context.Context, string) ([]oracle.Entity, error) {
	return nil, errors.New("model unavailable")
}

func TestExtractLabeledJobDescription(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	text := "Job Title: Senior Data Engineer\nLocation: Pune\n3-5 years experience\nSkills: Python, SQL, Communication"
	rec := e.Extract(context.Background(), text)

	if rec.JobRole != "Senior Data Engineer" {
		t.Fatalf("unexpected job role %q", rec.JobRole)
	}
	if rec.JobLocation != "Pune" {
		t.Fatalf("unexpected location %q", rec.JobLocation)
	}
	if rec.Experience != "3-5 years" {
		t.Fatalf("unexpected experience %q", rec.Experience)
	}
	if rec.MinExp != YearsOf(3) || rec.MaxExp != YearsOf(5) {
		t.Fatalf("unexpected range %v-%v", rec.MinExp, rec.MaxExp)
	}
	if rec.Skills != "python, sql, communication" {
		t.Fatalf("unexpected skills %q", rec.Skills)
	}
	if rec.TechSkills != "python, sql" {
		t.Fatalf("unexpected tech skills %q", rec.TechSkills)
	}
	if rec.SoftSkills != "communication" {
		t.Fatalf("unexpected soft skills %q", rec.SoftSkills)
	}
	if rec.JobType != "Tech" {
		t.Fatalf("unexpected job type %q", rec.JobType)
	}
	if rec.Salary != NA || rec.WorkMode != NA || rec.Responsibilities != NA {
		t.Fatalf("expected unresolved salary, work mode and responsibilities, got %+v", rec)
	}
}

func TestExtractEmptyText(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	rec := e.Extract(context.Background(), "   \n ")

	for name, value := range rec.Fields() {
		if value != NA {
			t.Fatalf("expected %s to be NA, got %v", name, value)
		}
	}
}

func TestRecordFieldsHasAllKeys(t *testing.T) {
	t.Parallel()

	fields := NewRecord().Fields()
	keys := []string{
		"company", "job_role", "employment_type", "job_location", "experience", "min_exp", "max_exp",
		"skills", "tech_skills", "soft_skills", "qualification", "work_mode", "salary", "job_type", "responsibilities",
	}
	if len(fields) != len(keys) {
		t.Fatalf("expected %d fields, got %d", len(keys), len(fields))
	}
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			t.Fatalf("missing field %q", k)
		}
	}
}

func TestRecordJSON(t *testing.T) {
	t.Parallel()

	rec := NewRecord()
	rec.MinExp = YearsOf(2)
	rec.SkillList = []string{"python"}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["min_exp"] != float64(2) {
		t.Fatalf("expected min_exp 2, got %v", decoded["min_exp"])
	}
	if decoded["max_exp"] != NA {
		t.Fatalf("expected max_exp NA, got %v", decoded["max_exp"])
	}
	if _, ok := decoded["SkillList"]; ok {
		t.Fatalf("skill list must not be serialized")
	}
}

func TestCompanyCascade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    Config
		text   string
		expect string
	}{
		{
			name: "prefers entity with legal suffix",
			cfg: Config{Recognizer: oracle.Static{
				{Text: "HR", Label: oracle.LabelOrg},
				{Text: "Acme", Label: oracle.LabelOrg},
				{Text: "Globex Technologies", Label: oracle.LabelOrg},
				{Text: "Initech Solutions Group", Label: oracle.LabelOrg},
				{Text: "Pune", Label: oracle.LabelGPE},
			}},
			text:   "some text",
			expect: "Globex Technologies",
		},
		{
			name: "falls back to longest entity",
			cfg: Config{Recognizer: oracle.Static{
				{Text: "Acme", Label: oracle.LabelOrg},
				{Text: " Umbrella ", Label: oracle.LabelOrg},
				{Text: "team", Label: oracle.LabelOrg},
			}},
			text:   "some text",
			expect: "Umbrella",
		},
		{
			name: "uses parser organizations",
			cfg: Config{
				Recognizer: oracle.Nop{},
				Parser:     oracle.Static{{Text: "Foo", Label: oracle.LabelOrg}, {Text: "Foo Corp", Label: oracle.LabelOrg}},
			},
			text:   "some text",
			expect: "Foo Corp",
		},
		{
			name:   "labeled line",
			text:   "Company: Acme Widgets\nwe build things",
			expect: "Acme Widgets",
		},
		{
			name:   "legal name pattern",
			text:   "Globex Corporation is hiring.",
			expect: "Globex Corporation",
		},
		{
			name:   "capitalized phrase skips headers",
			text:   "Job Description\nNorthwind Traders is growing",
			expect: "Northwind Traders is growing",
		},
		{
			name:   "unresolved",
			text:   "nothing capitalized here",
			expect: NA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, tt.cfg)
			if got := e.Extract(context.Background(), tt.text).Company; got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestJobRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		expect string
	}{
		{name: "strips filler and splits", text: "Position: We are hiring Senior Analyst - Risk, Mumbai", expect: "Senior Analyst"},
		{name: "strips repeated label", text: "Job Title: Role: Backend Engineer", expect: "Backend Engineer"},
		{name: "role noun fallback", text: "Backend Developer wanted.", expect: "Backend Developer wanted"},
		{name: "caps length", text: "Title: " + strings.Repeat("x", 150), expect: strings.Repeat("x", 100)},
		{name: "unresolved", text: "nothing here", expect: NA},
	}

	e := newTestEngine(t, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := e.Extract(context.Background(), tt.text).JobRole; got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestEmploymentType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Internship opportunity, full-time": "Internship",
		"This is a Full Time position":      "Full-time",
		"part-time support":                 "Part-time",
		"12 month contract":                 "Contract",
		"freshers welcome":                  NA,
		"open to a fresher":                 "Fresher",
	}

	e := newTestEngine(t, Config{})
	for text, want := range tests {
		if got := e.Extract(context.Background(), text).EmploymentType; got != want {
			t.Fatalf("%q: expected %q, got %q", text, want, got)
		}
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    Config
		text   string
		expect string
	}{
		{name: "labeled multi word", text: "Job Location: new delhi, India", expect: "New Delhi"},
		{name: "labeled value on next line", text: "Location:\nPune", expect: "Pune"},
		{name: "remote", text: "Work from home allowed", expect: "Remote"},
		{name: "pan india", text: "Openings across PAN India", expect: "Pan"},
		{
			name:   "short label falls back to parser",
			cfg:    Config{Recognizer: oracle.Static{{Text: "New York", Label: oracle.LabelGPE}}},
			text:   "Location: NY",
			expect: "New York",
		},
		{name: "unresolved", text: "Location: NY", expect: NA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, tt.cfg)
			if got := e.Extract(context.Background(), tt.text).JobLocation; got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExperience(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		raw      string
		min, max Years
	}{
		{text: "Minimum of 4 years in sales", raw: "4 years", min: YearsOf(4), max: YearsOf(4)},
		{text: "5+ yrs hands-on", raw: "5+ yrs", min: YearsOf(5), max: YearsOf(5)},
		{text: "2 to 6 years", raw: "2 to 6 years", min: YearsOf(2), max: YearsOf(6)},
		{text: "Experience: 3 To 5 Years", raw: "3 To 5 Years", min: YearsOf(3), max: YearsOf(5)},
		{text: "Freshers welcome", raw: "Fresher", min: YearsOf(0), max: YearsOf(0)},
		{text: "no numbers", raw: NA},
	}

	e := newTestEngine(t, Config{})
	for _, tt := range tests {
		rec := e.Extract(context.Background(), tt.text)
		if rec.Experience != tt.raw {
			t.Fatalf("%q: expected raw %q, got %q", tt.text, tt.raw, rec.Experience)
		}
		if rec.MinExp != tt.min || rec.MaxExp != tt.max {
			t.Fatalf("%q: expected %v-%v, got %v-%v", tt.text, tt.min, tt.max, rec.MinExp, rec.MaxExp)
		}
	}
}

func TestExperienceRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		min, max Years
	}{
		{raw: "3-5 years", min: YearsOf(3), max: YearsOf(5)},
		{raw: "10 to 3 years", min: YearsOf(3), max: YearsOf(10)},
		{raw: "3 To 5 Years", min: YearsOf(3), max: YearsOf(5)},
		{raw: "7 years", min: YearsOf(7), max: YearsOf(7)},
		{raw: "fresher", min: YearsOf(0), max: YearsOf(0)},
		{raw: "NA"},
		{raw: ""},
		{raw: "several years"},
	}

	for _, tt := range tests {
		lo, hi := ExperienceRange(tt.raw)
		if lo != tt.min || hi != tt.max {
			t.Fatalf("%q: expected %v-%v, got %v-%v", tt.raw, tt.min, tt.max, lo, hi)
		}
		if lo.Known && hi.Known && lo.Value > hi.Value {
			t.Fatalf("%q: min exceeds max", tt.raw)
		}
	}
}

func TestQualificationWorkModeJobType(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	ctx := context.Background()

	if got := e.Extract(ctx, "B.Tech in Computer Science required").Qualification; got != "B.Tech in Computer" {
		t.Fatalf("unexpected qualification %q", got)
	}
	if got := e.Extract(ctx, "MBA preferred").Qualification; got != "MBA" {
		t.Fatalf("unexpected qualification %q", got)
	}
	if got := e.Extract(ctx, "Hybrid working, 3 days in office").WorkMode; got != "Hybrid" {
		t.Fatalf("unexpected work mode %q", got)
	}
	if got := e.Extract(ctx, "Remote first, hybrid optional").WorkMode; got != "Remote" {
		t.Fatalf("unexpected work mode %q", got)
	}
	if got := e.Extract(ctx, "Sales Executive").JobType; got != "Non-Tech" {
		t.Fatalf("unexpected job type %q", got)
	}
	if got := e.Extract(ctx, "Gardening").JobType; got != NA {
		t.Fatalf("unexpected job type %q", got)
	}
}

func TestSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    Config
		text   string
		expect string
	}{
		{name: "rupee range", text: "CTC: ₹6,00,000 - ₹9,00,000 per annum", expect: "₹6,00,000 - ₹9,00,000 per annum"},
		{name: "lpa range", text: "Pay: 5-8 LPA", expect: "5-8 lpa"},
		{name: "dollar range", text: "$4000 - $5000 per month", expect: "$4000 - $5000 per month"},
		{
			name:   "money entity",
			cfg:    Config{Recognizer: oracle.Static{{Text: "lots", Label: oracle.LabelMoney}, {Text: "about $90k!", Label: oracle.LabelMoney}}},
			text:   "Compensation competitive",
			expect: "about $90k",
		},
		{name: "unresolved", text: "Compensation competitive", expect: NA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, tt.cfg)
			if got := e.Extract(context.Background(), tt.text).Salary; got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestResponsibilities(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	ctx := context.Background()

	got := e.Extract(ctx, "Responsibilities:\n- Build APIs\n- Review code\n\nRequirements: Go").Responsibilities
	if got != "- Build APIs\n- Review code" {
		t.Fatalf("unexpected responsibilities %q", got)
	}

	got = e.Extract(ctx, "Key Responsibilities: design\n\nAbout us\n\nDuties: mentor").Responsibilities
	if got != "design mentor" {
		t.Fatalf("unexpected joined responsibilities %q", got)
	}

	short := newTestEngine(t, Config{MaxResponsibilityChars: 20})
	got = short.Extract(ctx, "Responsibilities: "+strings.Repeat("x", 30)).Responsibilities
	if got != strings.Repeat("x", 20)+"..." {
		t.Fatalf("unexpected truncated responsibilities %q", got)
	}
}

func TestOracleFailureIsLogged(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	e := newTestEngine(t, Config{Recognizer: failingRecognizer{}, Logger: zap.New(core)})

	rec := e.Extract(context.Background(), "Company: Acme Widgets")
	if rec.Company != "Acme Widgets" {
		t.Fatalf("expected fallback company, got %q", rec.Company)
	}

	entries := observed.FilterMessage("entity recognition failed, continuing without entities").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
}

func TestExtractAllKeepsOrder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{Workers: 2})
	texts := []string{"python", "docker and sql", "", "leadership"}

	records, err := e.ExtractAll(context.Background(), texts)
	if err != nil {
		t.Fatalf("extract all: %v", err)
	}
	want := []string{"python", "sql, docker", NA, "leadership"}
	for i, rec := range records {
		if rec.Skills != want[i] {
			t.Fatalf("record %d: expected %q, got %q", i, want[i], rec.Skills)
		}
	}
}

func TestExtractAllCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t, Config{})
	if _, err := e.ExtractAll(ctx, []string{"python"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	got := Clean("We are  LOOKING for a Go-developer!!\n\nSQL, python.")
	if got != "looking godeveloper sql, python." {
		t.Fatalf("unexpected cleaned text %q", got)
	}
}
