package cmd

import (
	"context"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/skills"
	"github.com/spigell/jd-matcher/internal/storage"
	"github.com/spigell/jd-matcher/internal/weighting"
)

var weighCmd = &cobra.Command{
	Use:   "weigh",
	Short: "Compute skill weights, IDF and TF-IDF for all stored jobs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		autoApprove, _ := cmd.Flags().GetBool("auto-approve")
		weigh(cmd.Context(), autoApprove)
	},
}

func init() {
	rootCmd.AddCommand(weighCmd)

	weighCmd.Flags().BoolP("auto-approve", "y", false, "replace existing weights without confirmation")
}

func weigh(ctx context.Context, autoApprove bool) {
	d := newDeps(ctx, "weigh")
	defer d.close()
	log := d.logger
	store := d.store(ctx)

	jobs, err := store.Jobs(ctx)
	if err != nil {
		log.Fatal("loading jobs", zap.Error(err))
	}
	if len(jobs) == 0 {
		log.Info("exiting", zap.String("reason", "no jobs stored"))
		return
	}

	existing, err := store.Count(ctx, &storage.JobSkillWeight{})
	if err != nil {
		log.Fatal("counting stored weights", zap.Error(err))
	}
	if existing > 0 {
		ok, err := confirm("Replace existing skill weights?", autoApprove)
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if !ok {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	corpus := make([]weighting.Document, 0, len(jobs))
	for _, j := range jobs {
		corpus = append(corpus, weighting.Document{
			ID:     strconv.FormatUint(uint64(j.ID), 10),
			Text:   j.Description,
			Skills: skills.Split(j.Skills),
		})
	}

	weigher := weighting.New(d.embedder, log, d.config.Weighting.Workers)
	records, stats, err := weigher.Weigh(ctx, corpus)
	if err != nil {
		log.Fatal("weighing skills", zap.Error(err))
	}

	rows := make([]storage.JobSkillWeight, 0, len(records))
	for id, rec := range records {
		jobID, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			log.Fatal("unexpected document id", zap.String("id", id), zap.Error(err))
		}
		row, err := storage.NewJobSkillWeight(uint(jobID), rec)
		if err != nil {
			log.Fatal("encoding skill weights", zap.Error(err))
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, k int) bool { return rows[i].JobID < rows[k].JobID })

	if err := store.ReplaceSkillWeights(ctx, rows); err != nil {
		log.Fatal("storing skill weights", zap.Error(err))
	}

	log.Info("skill weights stored",
		zap.Int("jobs", stats.TotalDocs),
		zap.Int("weighted", len(rows)),
		zap.Int("distinct_skills", len(stats.DocFreq)),
	)
}
