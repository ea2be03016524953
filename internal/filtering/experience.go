package filtering

import (
	"context"
	"errors"
	"strconv"
)

const (
	// Bounds assumed for jobs that do not state them.
	unknownMinExp = 0
	unknownMaxExp = 100
)

type experienceFilter struct {
	toggle
	years int
}

// NewExperience keeps jobs whose experience range contains the candidate's
// years.
func NewExperience() Filter {
	return &experienceFilter{}
}

func (f *experienceFilter) Name() string { return "experience" }

func (f *experienceFilter) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is required")
	}
	if cfg.Experience < 0 {
		return errors.New("experience must not be negative")
	}
	f.years = cfg.Experience
	return nil
}

func (f *experienceFilter) Apply(_ context.Context, _ Deps, jobs []Job) ([]Job, Step, error) {
	kept := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		lo, hi := unknownMinExp, unknownMaxExp
		if j.Record.MinExp.Known {
			lo = j.Record.MinExp.Value
		}
		if j.Record.MaxExp.Known {
			hi = j.Record.MaxExp.Value
		}
		if lo <= f.years && f.years <= hi {
			kept = append(kept, j)
		}
	}
	return kept, Step{Initial: len(jobs), Dropped: len(jobs) - len(kept), Left: len(kept)}, nil
}

func (f *experienceFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"years": strconv.Itoa(f.years)},
	}
}
