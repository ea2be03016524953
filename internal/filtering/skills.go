package filtering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/extraction"
	"github.com/spigell/jd-matcher/internal/oracle"
)

// DefaultThreshold is the minimum similarity kept by the skills step.
const DefaultThreshold = 0.5

const jobSentencePrefix = "Job requires skills: "

type skillsFilter struct {
	toggle
	sentence  string
	threshold float64
}

// NewSkills keeps jobs whose required skills are semantically close to the
// candidate's skills and orders them by similarity.
func NewSkills() Filter {
	return &skillsFilter{}
}

func (f *skillsFilter) Name() string { return "skills" }

func (f *skillsFilter) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is required")
	}
	f.sentence = strings.TrimSpace(strings.Join(cfg.Skills, " "))
	if f.sentence == "" {
		return errors.New("at least one skill is required")
	}
	f.threshold = cfg.Threshold
	if f.threshold <= 0 {
		f.threshold = DefaultThreshold
	}
	if f.threshold > 1 {
		return fmt.Errorf("threshold %.2f is above 1", f.threshold)
	}
	return nil
}

func (f *skillsFilter) Apply(ctx context.Context, deps Deps, jobs []Job) ([]Job, Step, error) {
	if deps.Embedder == nil {
		return nil, Step{}, errors.New("embedder is not configured")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	texts := []string{f.sentence}
	candidates := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		required := requiredSkills(j.Record)
		if required == "" {
			continue
		}
		texts = append(texts, jobSentencePrefix+required)
		candidates = append(candidates, j)
	}

	step := Step{Initial: len(jobs)}
	if len(candidates) == 0 {
		step.Dropped = len(jobs)
		return nil, step, nil
	}

	vectors, err := deps.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, Step{}, fmt.Errorf("embedding skills: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, Step{}, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	kept := make([]Job, 0, len(candidates))
	for i, j := range candidates {
		sim := oracle.Cosine(vectors[0], vectors[i+1])
		if sim < f.threshold {
			logger.Debug("job below similarity threshold",
				zap.String("file", j.Filename),
				zap.Float64("similarity", sim),
			)
			continue
		}
		j.Similarity = oracle.Round(sim, 4)
		kept = append(kept, j)
	}

	sort.SliceStable(kept, func(a, b int) bool { return kept[a].Similarity > kept[b].Similarity })

	step.Left = len(kept)
	step.Dropped = len(jobs) - len(kept)
	return kept, step, nil
}

func (f *skillsFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"threshold": fmt.Sprintf("%.2f", f.threshold)},
	}
}

// requiredSkills prefers the technical skills of a job and falls back to all
// of them.
func requiredSkills(r extraction.Record) string {
	for _, s := range []string{r.TechSkills, r.Skills} {
		s = strings.TrimSpace(s)
		if s != "" && !strings.EqualFold(s, extraction.NA) {
			return s
		}
	}
	return ""
}
