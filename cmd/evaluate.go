package cmd

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/matching"
	"github.com/spigell/jd-matcher/internal/skills"
	"github.com/spigell/jd-matcher/internal/storage"
	"github.com/spigell/jd-matcher/internal/vocabulary"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Build the job x resume similarity table and the skill master list",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		autoApprove, _ := cmd.Flags().GetBool("auto-approve")
		evaluate(cmd.Context(), autoApprove)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().BoolP("auto-approve", "y", false, "replace existing tables without confirmation")
}

func evaluate(ctx context.Context, autoApprove bool) {
	d := newDeps(ctx, "evaluate")
	defer d.close()
	log := d.logger
	store := d.store(ctx)

	jobs, err := store.Jobs(ctx)
	if err != nil {
		log.Fatal("loading jobs", zap.Error(err))
	}
	resumes, err := store.Resumes(ctx)
	if err != nil {
		log.Fatal("loading resumes", zap.Error(err))
	}
	if len(jobs) == 0 || len(resumes) == 0 {
		log.Info("exiting", zap.String("reason", "no jobs or resumes to compare"),
			zap.Int("jobs", len(jobs)), zap.Int("resumes", len(resumes)))
		return
	}

	existing, err := store.Count(ctx, &storage.JobResumeComparison{})
	if err != nil {
		log.Fatal("counting stored comparisons", zap.Error(err))
	}
	if existing > 0 {
		ok, err := confirm("Replace existing comparisons and skill master?", autoApprove)
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if !ok {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	var jobProfiles, resumeProfiles []matching.Profile
	for _, j := range jobs {
		if len(skills.Split(j.Skills)) > 0 {
			jobProfiles = append(jobProfiles, matching.Profile{ID: j.ID, Skills: j.Skills})
		}
	}
	for _, r := range resumes {
		if len(skills.Split(r.Skills)) > 0 {
			resumeProfiles = append(resumeProfiles, matching.Profile{ID: r.ID, Skills: r.Skills})
		}
	}

	pairs, err := matching.New(d.embedder, log).CrossSimilarity(ctx, jobProfiles, resumeProfiles)
	if err != nil {
		log.Fatal("computing cross similarity", zap.Error(err))
	}

	comparisons := make([]storage.JobResumeComparison, 0, len(pairs))
	for _, p := range pairs {
		comparisons = append(comparisons, storage.JobResumeComparison{
			JobID:            p.JobID,
			ResumeID:         p.ResumeID,
			CosineSimilarity: p.Similarity,
		})
	}
	if err := store.ReplaceComparisons(ctx, comparisons); err != nil {
		log.Fatal("storing comparisons", zap.Error(err))
	}

	master := skillMaster(jobs, resumes)
	if err := store.ReplaceSkillMaster(ctx, master); err != nil {
		log.Fatal("storing skill master", zap.Error(err))
	}

	log.Info("evaluation finished",
		zap.Int("comparisons", len(comparisons)),
		zap.Int("skills", len(master)),
	)
}

// skillMaster collects every normalized skill of jobs and resumes, sorted and
// classified.
func skillMaster(jobs []storage.Job, resumes []storage.Resume) []storage.SkillMaster {
	var all []string
	for _, j := range jobs {
		for _, list := range []string{j.Skills, j.TechSkills, j.SoftSkills} {
			all = append(all, skills.Split(list)...)
		}
	}
	for _, r := range resumes {
		all = append(all, skills.Split(r.Skills)...)
	}

	set := skills.NewSet(all...)
	sort.Strings(set)

	rows := make([]storage.SkillMaster, 0, len(set))
	for _, s := range set {
		rows = append(rows, storage.SkillMaster{SkillName: s, SkillType: vocabulary.Classify(s)})
	}
	return rows
}
