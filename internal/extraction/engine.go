package extraction

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jd-matcher/internal/oracle"
	"github.com/spigell/jd-matcher/internal/patterns"
	"github.com/spigell/jd-matcher/internal/vocabulary"
)

const (
	DefaultMaxResponsibilityChars = 300
	defaultWorkers                = 4
)

// Config is the process-wide extraction context. It is built once at startup
// and shared read-only by every extraction.
type Config struct {
	Vocabulary *vocabulary.Vocabulary
	// Recognizer is the named-entity model.
	Recognizer oracle.EntityRecognizer
	// Parser is the general linguistic parser. Nil reuses Recognizer.
	Parser oracle.EntityRecognizer
	Logger *zap.Logger

	MaxResponsibilityChars int
	Workers                int
}

type field struct {
	name       string
	strategies []Strategy
}

// Engine extracts Records from free text.
type Engine struct {
	vocab   *vocabulary.Vocabulary
	ner     oracle.EntityRecognizer
	parser  oracle.EntityRecognizer
	logger  *zap.Logger
	workers int

	company, role, employment, location, experience field
	qualification, workMode, salary, jobType, duties field
}

// New builds an engine. A nil vocabulary yields empty skill fields.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxChars := cfg.MaxResponsibilityChars
	if maxChars <= 0 {
		maxChars = DefaultMaxResponsibilityChars
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Engine{
		vocab:   cfg.Vocabulary,
		ner:     cfg.Recognizer,
		parser:  cfg.Parser,
		logger:  logger,
		workers: workers,

		company: field{"company", []Strategy{
			companyFromEntities, companyFromParser, companyFromLabel, companyFromLegalName, companyFromCapitalPhrase,
		}},
		role:       field{"job_role", []Strategy{roleFromLabel, roleFromNoun}},
		employment: field{"employment_type", []Strategy{keywordStrategy(patterns.EmploymentTypes, true)}},
		location: field{"job_location", []Strategy{
			locationFromLabel, locationRemote, locationPan, locationFromParser,
		}},
		experience:    field{"experience", []Strategy{experienceFromPatterns, experienceFresher}},
		qualification: field{"qualification", []Strategy{qualification}},
		workMode:      field{"work_mode", []Strategy{keywordStrategy(patterns.WorkModes, false)}},
		salary:        field{"salary", []Strategy{salaryFromPatterns, salaryFromParser}},
		jobType:       field{"job_type", []Strategy{jobTypeTech, jobTypeNonTech}},
		duties:        field{"responsibilities", []Strategy{responsibilities(maxChars)}},
	}
}

// Extract resolves every field of text. It never fails: unresolved fields are NA.
func (e *Engine) Extract(ctx context.Context, text string) Record {
	rec := NewRecord()
	if strings.TrimSpace(text) == "" {
		return rec
	}

	doc := NewDocument(ctx, text, e.ner, e.parser, e.logger)

	rec.Company = e.resolve(doc, e.company)
	rec.JobRole = e.resolve(doc, e.role)
	rec.EmploymentType = e.resolve(doc, e.employment)
	rec.JobLocation = e.resolve(doc, e.location)
	rec.Experience = e.resolve(doc, e.experience)
	rec.MinExp, rec.MaxExp = ExperienceRange(rec.Experience)

	if e.vocab != nil {
		rec.SkillList = e.vocab.Match(text)
		rec.Skills = joinOrNA(rec.SkillList)
		rec.TechSkills = joinOrNA(e.vocab.Tech(rec.SkillList))
		rec.SoftSkills = joinOrNA(e.vocab.Soft(rec.SkillList))
	}

	rec.Qualification = e.resolve(doc, e.qualification)
	rec.WorkMode = e.resolve(doc, e.workMode)
	rec.Salary = e.resolve(doc, e.salary)
	rec.JobType = e.resolve(doc, e.jobType)
	rec.Responsibilities = e.resolve(doc, e.duties)

	return rec
}

func (e *Engine) resolve(doc *Document, f field) (value string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("field extraction panicked", zap.String("field", f.name), zap.Any("panic", r))
			value = NA
		}
	}()

	for i, s := range f.strategies {
		if v, ok := s(doc); ok {
			e.logger.Debug("field resolved", zap.String("field", f.name), zap.Int("strategy", i))
			return v
		}
	}
	return NA
}

// ExtractAll extracts texts concurrently and returns records in input order.
// The only error is the context's.
func (e *Engine) ExtractAll(ctx context.Context, texts []string) ([]Record, error) {
	records := make([]Record, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records[i] = e.Extract(ctx, text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
