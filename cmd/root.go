package cmd

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avelinas/repomatch/internal/ai/gemini"
	"github.com/avelinas/repomatch/internal/github"
	"github.com/avelinas/repomatch/internal/logger"
	"github.com/avelinas/repomatch/internal/match"
	"github.com/avelinas/repomatch/internal/scrape"
	"github.com/avelinas/repomatch/internal/secrets"
	"github.com/avelinas/repomatch/internal/store"
)

const (
	app = "repomatch"
)

type Config struct {
	// Store selects the persistence backend: "postgres" or "memory".
	Store       string         `mapstructure:"store"`
	DatabaseURL string         `mapstructure:"database-url"`
	GitHub      *GitHubConfig  `mapstructure:"github"`
	Scraper     *ScraperConfig `mapstructure:"scraper"`
	AI          *AIConfig      `mapstructure:"ai"`
}

type GitHubConfig struct {
	TokenFile string `mapstructure:"token-file"`
}

type ScraperConfig struct {
	UserAgent      string   `mapstructure:"user-agent"`
	ProxyURL       string   `mapstructure:"proxy-url"`
	ProxyAPIKey    string   `mapstructure:"proxy-api-key"`
	JobBoards      []string `mapstructure:"job-boards"`
	TimeoutSeconds int      `mapstructure:"timeout-seconds"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "repomatch profiles GitHub repositories, collects job postings and matches them with an AI scorer",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Local development secrets live in .env; a missing file is fine.
	_ = godotenv.Load()

	for key, env := range map[string]string{
		"database-url":           "DATABASE_URL",
		"github.token-file":      "GITHUB_TOKEN_FILE",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"scraper.proxy-api-key":  "SCRAPER_API_KEY",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is repomatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional; environment variables and flags can carry
	// a full configuration. A file that exists but does not parse is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	return config, nil
}

// newLogger builds the process logger from the persistent flags.
func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// newStore opens the configured persistence backend. Postgres is used when a
// database URL is configured unless the store key forces memory.
func newStore(ctx context.Context, config *Config, logger *zap.Logger) store.Store {
	backend := strings.TrimSpace(strings.ToLower(config.Store))
	databaseURL := strings.TrimSpace(config.DatabaseURL)

	if backend == "memory" || (backend == "" && databaseURL == "") {
		logger.Debug("using in-memory store")
		return store.NewMemory()
	}

	if databaseURL == "" {
		logger.Fatal("postgres store requires a database url",
			zap.String("hint", "set DATABASE_URL or the 'database-url' key in the configuration file"),
		)
	}

	pg, err := store.ConnectPostgres(ctx, databaseURL)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}

	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensuring database schema", zap.Error(err))
	}

	return pg
}

func newProfiler(config *Config, st store.Store, logger *zap.Logger) *github.Profiler {
	token := ""
	if config.GitHub != nil && strings.TrimSpace(config.GitHub.TokenFile) != "" {
		loaded, err := secrets.Load(secrets.Source{
			Name: "github token",
			File: config.GitHub.TokenFile,
		})
		if err != nil {
			logger.Fatal("loading github token", zap.Error(err))
		}
		token = loaded
	} else {
		// Unauthenticated profiling works within the public rate limits.
		logger.Debug("no github token configured, using anonymous requests")
	}

	client := github.NewClient(logger, token)
	return github.NewProfiler(client, st, logger)
}

func newScraper(config *Config, st store.Store, logger *zap.Logger) *scrape.Scraper {
	cfg := scrape.Config{}
	if config.Scraper != nil {
		cfg.UserAgent = config.Scraper.UserAgent
		cfg.ProxyURL = config.Scraper.ProxyURL
		cfg.ProxyAPIKey = config.Scraper.ProxyAPIKey
		cfg.JobBoards = config.Scraper.JobBoards
		cfg.Timeout = time.Duration(config.Scraper.TimeoutSeconds) * time.Second
	}
	return scrape.New(cfg, st, logger)
}

func newMatcher(ctx context.Context, config *Config, st store.Store, logger *zap.Logger) *match.Matcher {
	ai := config.AI
	if ai == nil {
		ai = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(ai.Provider))
	if provider != "" && provider != "gemini" {
		logger.Fatal("unsupported ai provider", zap.String("provider", ai.Provider))
	}

	geminiCfg := ai.Gemini
	if geminiCfg == nil {
		geminiCfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: geminiCfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		logger.Fatal("loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE, GEMINI_API_KEY or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, geminiCfg.Model)
	if err != nil {
		logger.Fatal("creating gemini generator", zap.Error(err))
	}

	matcherLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return match.New(generator, st, matcherLogger, geminiCfg.MaxLogLength)
}
