package cmd

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/matching"
	"github.com/spigell/jd-matcher/internal/scoring"
	"github.com/spigell/jd-matcher/internal/skills"
	"github.com/spigell/jd-matcher/internal/storage"
	"github.com/spigell/jd-matcher/internal/weighting"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match your skills against stored jobs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		raw, _ := cmd.Flags().GetString("skills")
		jobID, _ := cmd.Flags().GetUint("job-id")
		match(cmd.Context(), raw, jobID)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("skills", "s", "", "comma separated skills; asked interactively when empty")
	matchCmd.Flags().Uint("job-id", 0, "compare against a single job")
	matchCmd.Flags().Float64("threshold", matching.DefaultThreshold, "minimum similarity for a skill to count as matched")

	viper.BindPFlag("matching.threshold", matchCmd.Flags().Lookup("threshold"))
}

type matchResult struct {
	job        storage.Job
	comparison *matching.Comparison
	report     scoring.Report
	// gaps lists the missing skills, most distinctive first once the job has
	// been weighed.
	gaps []string
}

func match(ctx context.Context, raw string, jobID uint) {
	d := newDeps(ctx, "match")
	defer d.close()
	log := d.logger

	if strings.TrimSpace(raw) == "" {
		var err error
		if raw, err = askSkills(); err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
	}
	candidate := skills.Split(raw)
	if len(candidate) == 0 {
		log.Fatal("at least one skill is required")
	}

	store := d.store(ctx)
	var jobs []storage.Job
	if jobID != 0 {
		job, err := store.Job(ctx, jobID)
		if err != nil {
			log.Fatal("loading job", zap.Error(err))
		}
		jobs = []storage.Job{job}
	} else {
		var err error
		if jobs, err = store.Jobs(ctx); err != nil {
			log.Fatal("loading jobs", zap.Error(err))
		}
	}

	weights, err := store.SkillWeights(ctx)
	if err != nil {
		log.Fatal("loading skill weights", zap.Error(err))
	}

	matcher := matching.New(d.embedder, log)
	threshold := d.config.Matching.Threshold

	results := make([]matchResult, 0, len(jobs))
	for _, j := range jobs {
		reference := skills.Split(j.Skills)
		if len(reference) == 0 {
			log.Debug("job has no skills, skipping", zap.Uint("job_id", j.ID))
			continue
		}
		cmp, err := matcher.Compare(ctx, reference, candidate, threshold)
		if err != nil {
			log.Fatal("comparing skills", zap.Uint("job_id", j.ID), zap.Error(err))
		}
		res := matchResult{job: j, comparison: cmp, report: scoring.Score(candidate, reference), gaps: cmp.Missing}
		if row, ok := weights[j.ID]; ok {
			rec, err := row.Weights()
			if err != nil {
				log.Warn("ignoring stored skill weights", zap.Uint("job_id", j.ID), zap.Error(err))
			} else {
				res.gaps = rankByTFIDF(cmp.Missing, rec)
			}
		}
		results = append(results, res)
	}

	if len(results) == 0 {
		log.Info("exiting", zap.String("reason", "no jobs with skills to match"))
		return
	}

	sort.SliceStable(results, func(i, k int) bool {
		return results[i].comparison.MatchRate > results[k].comparison.MatchRate
	})

	for _, r := range results {
		log.Info("job match",
			zap.Uint("job_id", r.job.ID),
			zap.String("file", r.job.Filename),
			zap.String("company", r.job.Company),
			zap.String("role", r.job.JobRole),
			zap.Float64("match_rate", r.comparison.MatchRate),
			zap.Strings("matched", r.comparison.Matched),
			zap.Strings("missing", r.gaps),
			zap.Float64("precision", r.report.Precision),
			zap.Float64("recall", r.report.Recall),
			zap.Float64("f1", r.report.F1),
		)
	}
}

// rankByTFIDF orders skills by descending TF-IDF from rec. Lookups ignore
// case; skills without statistics keep their order after the ranked ones.
func rankByTFIDF(skillNames []string, rec *weighting.Record) []string {
	tfidf := make(map[string]float64, len(rec.TFIDF))
	for k, v := range rec.TFIDF {
		tfidf[strings.ToLower(strings.TrimSpace(k))] = v
	}

	ranked := make([]string, len(skillNames))
	copy(ranked, skillNames)
	sort.SliceStable(ranked, func(i, k int) bool {
		vi, iok := tfidf[strings.ToLower(ranked[i])]
		vk, kok := tfidf[strings.ToLower(ranked[k])]
		if iok != kok {
			return iok
		}
		return vi > vk
	})
	return ranked
}

func askSkills() (string, error) {
	prompt := promptui.Prompt{
		Label: "Your skills (comma separated)",
		Validate: func(s string) error {
			if len(skills.Split(s)) == 0 {
				return errors.New("enter at least one skill")
			}
			return nil
		},
	}
	return prompt.Run()
}
