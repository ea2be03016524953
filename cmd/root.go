package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jd-matcher"
)

type Config struct {
	Source     string           `mapstructure:"source"`
	Processed  string           `mapstructure:"processed"`
	Vocabulary string           `mapstructure:"vocabulary"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Weighting  WeightingConfig  `mapstructure:"weighting"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	AI         AIConfig         `mapstructure:"ai"`
}

type ExtractionConfig struct {
	Workers                int `mapstructure:"workers"`
	MaxResponsibilityChars int `mapstructure:"max-responsibility-chars"`
}

type WeightingConfig struct {
	Workers int `mapstructure:"workers"`
}

type MatchingConfig struct {
	Threshold       float64 `mapstructure:"threshold"`
	FilterThreshold float64 `mapstructure:"filter-threshold"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	PasswordFile string `mapstructure:"password-file"`
}

type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type AIConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	NERModel       string `mapstructure:"ner-model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jd-matcher extracts structured fields from job descriptions and resumes and matches their skills",
	}
)

// Execute executes the root command. An interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	for key, env := range map[string]string{
		"database.password-file": "JDM_DB_PASSWORD_FILE",
		"ai.api-key-file":        "GEMINI_API_KEY_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jd-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("source", "source")
	viper.SetDefault("processed", "processed")
	viper.SetDefault("extraction.workers", 4)
	viper.SetDefault("extraction.max-responsibility-chars", 300)
	viper.SetDefault("weighting.workers", 4)
	viper.SetDefault("matching.threshold", 0.6)
	viper.SetDefault("matching.filter-threshold", 0.5)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.name", "jobportal")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.ttl", "24h")
	viper.SetDefault("ai.embedding-model", "text-embedding-004")
	viper.SetDefault("ai.ner-model", "gemini-2.5-flash")
	viper.SetDefault("ai.max-retries", 3)
	viper.SetDefault("ai.max-log-length", 200)
}

func initConfig() {
	// The version command works without any config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	// Defaults are enough when no config file exists and none was requested.
	if errors.As(err, &notFound) && cfgFile == "" {
		return
	}
	// We can't proceed if the config file parsed with error.
	if err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
