package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/document"
	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/oracle"
	"github.com/spigell/jd-matcher/internal/oracle/cache"
	"github.com/spigell/jd-matcher/internal/oracle/gemini"
	"github.com/spigell/jd-matcher/internal/secrets"
	"github.com/spigell/jd-matcher/internal/storage"
	"github.com/spigell/jd-matcher/internal/vocabulary"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	hashEmbeddingModel = "hash"
)

// deps carries everything a command needs. Failures while building it are
// fatal.
type deps struct {
	config *Config
	logger *zap.Logger

	vocabulary *vocabulary.Vocabulary
	recognizer oracle.EntityRecognizer
	embedder   oracle.Embedder
	// ocr is nil without AI.
	ocr document.OCR

	closers []func() error
}

func newDeps(ctx context.Context, command string) *deps {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the jd-matcher", zap.String("version", version), zap.String("command", command))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	d := &deps{config: config, logger: logger}
	d.vocabulary = d.loadVocabulary()
	d.recognizer, d.embedder = d.oracles(ctx)
	return d
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Warn("closing a resource", zap.Error(err))
		}
	}
	_ = d.logger.Sync()
}

func (d *deps) loadVocabulary() *vocabulary.Vocabulary {
	var (
		v   *vocabulary.Vocabulary
		err error
	)
	if d.config.Vocabulary != "" {
		v, err = vocabulary.Load(d.config.Vocabulary)
	} else {
		v, err = vocabulary.Default()
	}
	if err != nil {
		d.logger.Fatal("loading skill vocabulary", zap.Error(err), zap.String("path", d.config.Vocabulary))
	}
	d.logger.Debug("skill vocabulary loaded", zap.Int("terms", v.Len()))
	return v
}

// oracles returns the entity recognizer and the embedder. Without AI both fall
// back to local implementations.
func (d *deps) oracles(ctx context.Context) (oracle.EntityRecognizer, oracle.Embedder) {
	var (
		recognizer oracle.EntityRecognizer = oracle.Nop{}
		embedder   oracle.Embedder         = oracle.HashEmbedder{}
		model                              = hashEmbeddingModel
	)

	cfg := d.config.AI
	if cfg.Enabled {
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			d.logger.Fatal("loading gemini api key", zap.Error(err),
				zap.String("hint", "set ai.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY"),
			)
		}

		client, err := gemini.New(ctx, gemini.Config{
			APIKey:         apiKey,
			EmbeddingModel: cfg.EmbeddingModel,
			NERModel:       cfg.NERModel,
			MaxRetries:     cfg.MaxRetries,
			MaxLogLength:   cfg.MaxLogLength,
		}, d.logger)
		if err != nil {
			d.logger.Fatal("creating gemini client", zap.Error(err))
		}
		recognizer, embedder, model = client, client, cfg.EmbeddingModel
		d.ocr = client
	} else {
		d.logger.Info("ai is disabled, using local hash embeddings without entity recognition or ocr")
	}

	if d.config.Redis.Enabled {
		client := redis.NewClient(&redis.Options{Addr: d.config.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			d.logger.Warn("redis is unreachable, embeddings will not be cached",
				zap.String("addr", d.config.Redis.Addr), zap.Error(err))
			_ = client.Close()
		} else {
			d.closers = append(d.closers, client.Close)
			embedder = cache.NewEmbedder(embedder, cache.NewRedisStore(client), model, d.config.Redis.TTL,
				logger.WithCommonFields(d.logger, "redis", model))
		}
	}

	return recognizer, embedder
}

func (d *deps) store(ctx context.Context) *storage.Store {
	db := d.config.Database
	password, err := secrets.Load(secrets.Source{
		Name: "database password",
		File: db.PasswordFile,
		Env:  "JDM_DB_PASSWORD",
	})
	if err != nil {
		d.logger.Fatal("loading database password", zap.Error(err),
			zap.String("hint", "set database.password-file, JDM_DB_PASSWORD_FILE or JDM_DB_PASSWORD"),
		)
	}

	dsn := storage.Config{Host: db.Host, Port: db.Port, Name: db.Name, User: db.User, Password: password}.DSN()
	s, err := storage.Open(ctx, dsn, d.logger)
	if err != nil {
		d.logger.Fatal("opening the database", zap.Error(err), zap.String("host", db.Host), zap.String("name", db.Name))
	}
	d.closers = append(d.closers, s.Close)
	return s
}

// confirm asks before destructive writes unless autoApprove is set.
func confirm(label string, autoApprove bool) (bool, error) {
	if autoApprove {
		return true, nil
	}
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}
	_, answer, err := prompt.Run()
	if err != nil {
		return false, err
	}
	return answer == PromptYes, nil
}
