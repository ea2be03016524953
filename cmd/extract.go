package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/document"
	"github.com/spigell/jd-matcher/internal/extraction"
	"github.com/spigell/jd-matcher/internal/inbox"
	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/storage"
)

const (
	kindJD     = "jd"
	kindResume = "resume"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract fields from documents in the source directory and store them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		if kind != kindJD && kind != kindResume {
			return fmt.Errorf("unknown kind %q, expected %s or %s", kind, kindJD, kindResume)
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		extract(cmd.Context(), cmd, kind, dryRun)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("kind", "k", kindJD, "document kind: jd or resume")
	extractCmd.Flags().Bool("dry-run", false, "print extracted fields instead of storing them and keep files in place")
	extractCmd.Flags().String("source", "", "directory with incoming documents")
	extractCmd.Flags().String("processed", "", "directory for processed documents")

	viper.BindPFlag("source", extractCmd.Flags().Lookup("source"))
	viper.BindPFlag("processed", extractCmd.Flags().Lookup("processed"))
}

// extracted is one document produced from a source file.
type extracted struct {
	File   string            `json:"file"`
	Text   string            `json:"-"`
	Fields extraction.Record `json:"fields"`
}

func extract(ctx context.Context, cmd *cobra.Command, kind string, dryRun bool) {
	d := newDeps(ctx, "extract")
	defer d.close()
	log := d.logger

	box, err := inbox.New(d.config.Source, d.config.Processed, document.Supported, log)
	if err != nil {
		log.Fatal("preparing directories", zap.Error(err))
	}

	reader, err := document.NewReader(ctx, d.ocr, log)
	if err != nil {
		log.Fatal("creating document reader", zap.Error(err))
	}

	engine := extraction.New(extraction.Config{
		Vocabulary:             d.vocabulary,
		Recognizer:             d.recognizer,
		Logger:                 log,
		MaxResponsibilityChars: d.config.Extraction.MaxResponsibilityChars,
		Workers:                d.config.Extraction.Workers,
	})

	var (
		store *storage.Store
		known = map[string]struct{}{}
	)
	if !dryRun {
		store = d.store(ctx)
		model := any(&storage.Job{})
		if kind == kindResume {
			model = &storage.Resume{}
		}
		if known, err = store.Filenames(ctx, model); err != nil {
			log.Fatal("loading stored filenames", zap.Error(err))
		}
	}

	files, err := box.Pending()
	if err != nil {
		log.Fatal("listing incoming documents", zap.Error(err))
	}
	if len(files) == 0 {
		log.Info("exiting", zap.String("reason", "no files in source directory"), zap.String("source", box.Source))
		return
	}

	results, handled, err := collect(ctx, reader, engine, box, files, known, kind, log)
	if err != nil {
		log.Fatal("extraction interrupted", zap.Error(err))
	}

	if dryRun {
		pretty, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			log.Fatal("encoding results", zap.Error(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		return
	}

	if err := persist(ctx, store, kind, results); err != nil {
		log.Fatal("storing extracted documents", zap.Error(err))
	}

	for _, file := range handled {
		if err := box.Done(file); err != nil {
			log.Error("moving processed file", zap.Error(err))
		}
	}
	log.Info("extraction finished", zap.Int("files", len(handled)), zap.Int("documents", len(results)))
}

// collect reads and extracts the given files. It returns the extracted
// documents and the files that are done with. Files that could not be read are
// not returned, so they stay in the source directory.
func collect(ctx context.Context, reader *document.Reader, engine *extraction.Engine, box *inbox.Inbox,
	files []string, known map[string]struct{}, kind string, log *zap.Logger,
) ([]extracted, []string, error) {
	var (
		results []extracted
		handled []string
	)
	for _, file := range files {
		fileLog := logger.WithFields(log, logger.DocumentFields(file, kind)...)

		if _, ok := known[file]; ok {
			fileLog.Info("already stored, skipping")
			handled = append(handled, file)
			continue
		}

		texts, err := reader.Texts(ctx, box.Path(file))
		if err != nil {
			fileLog.Warn("reading failed, leaving the file in source", zap.Error(err))
			continue
		}
		if len(texts) == 0 {
			fileLog.Warn("empty content, skipping")
			handled = append(handled, file)
			continue
		}

		records, err := engine.ExtractAll(ctx, texts)
		if err != nil {
			return nil, nil, err
		}

		for i, rec := range records {
			results = append(results, extracted{
				File:   document.RowName(file, i+1, len(records)),
				Text:   texts[i],
				Fields: rec,
			})
		}
		handled = append(handled, file)
		fileLog.Info("document extracted", zap.Int("documents", len(records)))
	}
	return results, handled, nil
}

func persist(ctx context.Context, store *storage.Store, kind string, results []extracted) error {
	if len(results) == 0 {
		return nil
	}

	if kind == kindResume {
		rows := make([]storage.Resume, 0, len(results))
		for _, r := range results {
			rows = append(rows, storage.NewResume(r.File, r.Fields))
		}
		_, err := store.SaveResumes(ctx, rows)
		return err
	}

	rows := make([]storage.Job, 0, len(results))
	for _, r := range results {
		rows = append(rows, storage.NewJob(r.File, extraction.Clean(r.Text), r.Fields))
	}
	_, err := store.SaveJobs(ctx, rows)
	return err
}
