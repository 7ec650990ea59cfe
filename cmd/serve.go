package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"talentmatch/internal/feedback"
	"talentmatch/internal/lifecycle"
	"talentmatch/internal/logger"
	"talentmatch/internal/matching"
	"talentmatch/internal/orchestrator"
	"talentmatch/internal/scoring"
	"talentmatch/internal/scoring/gemini"
	"talentmatch/internal/secrets"
	"talentmatch/internal/server"
	"talentmatch/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the talentmatch HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (overrides config)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting talentmatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	st, err := buildStore(config, logger)
	if err != nil {
		logger.Fatal("building the store", zap.Error(err))
	}

	scorer, err := buildScorer(ctx, config.Scorer, logger)
	if err != nil {
		logger.Fatal("building the scorer", zap.Error(err))
	}

	aggregator := feedback.New(st, logger)
	orch := orchestrator.New(scorer, aggregator, logger,
		config.Scorer.MaxInFlight, config.Scorer.Timeout)
	manager := lifecycle.New(st, logger)

	srv := server.New(st, orch, manager, logger)

	logger.Info("listening", zap.String("address", config.Listen))
	if err := srv.Router().Run(config.Listen); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildStore opens PostgreSQL when a DSN is configured, otherwise falls back
// to the in-process store.
func buildStore(config *Config, logger *zap.Logger) (matching.Store, error) {
	if config.Database != nil && strings.TrimSpace(config.Database.DSN) != "" {
		return store.Open(config.Database.DSN, logger)
	}

	logger.Warn("no database dsn configured; batches are kept in memory only",
		zap.String("hint", "set DATABASE_DSN or the 'database.dsn' key in the configuration file"),
	)
	return store.NewMemory(), nil
}

// buildScorer picks the scoring provider. The default talks to the scoring
// service over HTTP; the gemini provider scores with the model directly.
func buildScorer(ctx context.Context, cfg *ScorerConfig, logger *zap.Logger) (scoring.Scorer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("scorer configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", "http":
		return scoring.NewHTTPClient(cfg.URL, cfg.Timeout, logger)
	case "gemini":
		return buildGeminiScorer(ctx, cfg.Gemini, logger)
	default:
		return nil, fmt.Errorf("unsupported scorer provider: %s", cfg.Provider)
	}
}

func buildGeminiScorer(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (scoring.Scorer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gemini configuration is required when the gemini provider is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set scorer.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Model),
		zap.Int("retry_attempts", cfg.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewScorer(generator, cfg.MaxLogLength, logger), nil
}
