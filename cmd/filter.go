package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/filtering"
	"github.com/spigell/jd-matcher/internal/skills"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "List stored jobs that fit your experience and skills",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		years, _ := cmd.Flags().GetInt("experience")
		raw, _ := cmd.Flags().GetString("skills")
		filter(cmd.Context(), years, skills.Split(raw))
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().IntP("experience", "e", 0, "your experience in years")
	filterCmd.Flags().StringP("skills", "s", "", "comma separated skills; the similarity step is skipped when empty")

	filterCmd.MarkFlagRequired("experience")
}

func filter(ctx context.Context, years int, userSkills []string) {
	d := newDeps(ctx, "filter")
	defer d.close()
	log := d.logger
	store := d.store(ctx)

	stored, err := store.Jobs(ctx)
	if err != nil {
		log.Fatal("loading jobs", zap.Error(err))
	}
	if len(stored) == 0 {
		log.Info("exiting", zap.String("reason", "no jobs stored"))
		return
	}

	jobs := make([]filtering.Job, 0, len(stored))
	for _, j := range stored {
		jobs = append(jobs, filtering.Job{ID: j.ID, Filename: j.Filename, Record: j.Record()})
	}

	steps := filtering.Default()
	if len(userSkills) == 0 {
		filtering.DisableByName(steps, "skills", "no skills given")
	}

	cfg := &filtering.Config{
		Experience: years,
		Skills:     userSkills,
		Threshold:  d.config.Matching.FilterThreshold,
	}
	kept, err := filtering.Run(ctx, cfg, filtering.Deps{Embedder: d.embedder, Logger: log}, steps, jobs)
	if err != nil {
		log.Fatal("filtering failed", zap.Error(err))
	}

	for _, s := range filtering.Describe(steps) {
		log.Debug("filter status",
			zap.String("name", s.Name),
			zap.Bool("enabled", s.Enabled),
			zap.String("reason", s.Reason),
			zap.Any("details", s.Details),
		)
	}

	if len(kept) == 0 {
		log.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	for _, j := range kept {
		log.Info("suitable job",
			zap.Uint("job_id", j.ID),
			zap.String("file", j.Filename),
			zap.String("company", j.Record.Company),
			zap.String("role", j.Record.JobRole),
			zap.String("tech_skills", j.Record.TechSkills),
			zap.Float64("similarity", j.Similarity),
		)
	}
	log.Info("filtering finished", zap.Int("jobs", len(stored)), zap.Int("suitable", len(kept)))
}
