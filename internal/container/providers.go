// Package container wires the content validation service together and owns
// its lifecycle.
package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/ai"
	"github.com/garyjia/content-validation/internal/application/dispatcher"
	"github.com/garyjia/content-validation/internal/application/engine"
	"github.com/garyjia/content-validation/internal/application/handler"
	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/config"
	infraLark "github.com/garyjia/content-validation/internal/infrastructure/external/lark"
	"github.com/garyjia/content-validation/internal/infrastructure/external/openai"
	"github.com/garyjia/content-validation/internal/infrastructure/external/scenario"
	"github.com/garyjia/content-validation/internal/infrastructure/metrics"
	"github.com/garyjia/content-validation/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/content-validation/pkg/database"
)

// ProviderBundle is the provider the engine calls plus what backs it
type ProviderBundle struct {
	Provider port.ContentGenerationProvider
	// DB is set when the provider reads or writes recordings
	DB       *database.DB
	Recorder *scenario.Recorder
}

// ProvideDatabase opens the recordings database and applies migrations
func ProvideDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return sqlite.Open(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
}

// RequestTimeout is the per-request deadline of the OpenAI provider:
// openai.timeout when set, otherwise the ValidationConfig request_timeout
func RequestTimeout(cfg config.OpenAIConfig, vcfg *config.ValidationConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	if vcfg == nil {
		return 0
	}
	return time.Duration(vcfg.RequestTimeout) * time.Second
}

// ProvideOpenAI creates the OpenAI provider, loading prompt overrides when
// a prompts file is configured
func ProvideOpenAI(cfg config.OpenAIConfig, vcfg *config.ValidationConfig, logger *zap.Logger) (*openai.Provider, error) {
	prompts := openai.PromptConfig{}
	if cfg.PromptsPath != "" {
		loaded, err := openai.LoadPrompts(cfg.PromptsPath, prompts)
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}

	return openai.NewProvider(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     RequestTimeout(cfg, vcfg),
		CostPer1K:   cfg.CostPer1K,
		Prompts:     prompts,
	}, logger)
}

// ProvideProvider selects the ContentGenerationProvider for cfg.Provider.Mode.
// Record and playback modes open the recordings database; the caller owns it.
func ProvideProvider(ctx context.Context, cfg *config.Config, vcfg *config.ValidationConfig, logger *zap.Logger) (*ProviderBundle, error) {
	switch cfg.Provider.Mode {
	case config.ProviderModeScenario:
		return &ProviderBundle{Provider: scenario.NewProvider(
			scenario.WithDefaultScenario(port.Scenario(cfg.Provider.DefaultScenario)),
			scenario.WithLogger(logger),
		)}, nil

	case config.ProviderModeOpenAI:
		p, err := ProvideOpenAI(cfg.OpenAI, vcfg, logger)
		if err != nil {
			return nil, err
		}
		return &ProviderBundle{Provider: p}, nil

	case config.ProviderModeRecord, config.ProviderModePlayback:
		var upstream port.ContentGenerationProvider
		if cfg.Provider.Mode == config.ProviderModeRecord {
			p, err := ProvideOpenAI(cfg.OpenAI, vcfg, logger)
			if err != nil {
				return nil, err
			}
			upstream = p
		}

		db, err := ProvideDatabase(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		recorder, err := scenario.NewRecorder(
			scenario.Mode(cfg.Provider.Mode),
			upstream,
			sqlite.NewRecordingRepository(db.DB, logger),
			logger,
		)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &ProviderBundle{Provider: recorder, DB: db, Recorder: recorder}, nil

	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.Provider.Mode)
	}
}

// ProvideMetrics creates the collector and subscribes it to d. It returns nil
// when metrics are disabled.
func ProvideMetrics(cfg config.MetricsConfig, d dispatcher.Dispatcher) *metrics.Collector {
	if !cfg.Enabled {
		return nil
	}
	collector := metrics.NewCollector(cfg.Namespace, nil)
	collector.Subscribe(d)
	return collector
}

// ProvideReviewNotifications subscribes a Lark review notifier to d. It
// returns false when Lark is not configured.
func ProvideReviewNotifications(cfg config.LarkConfig, d dispatcher.Dispatcher, logger *zap.Logger) (bool, error) {
	if !cfg.Enabled() {
		return false, nil
	}

	client := infraLark.NewClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		Timeout:   cfg.APITimeout,
	}, logger)

	notifier, err := infraLark.NewReviewNotifier(client, cfg.ReceiveIDType, cfg.ReviewChatID, logger)
	if err != nil {
		return false, err
	}
	handler.NewReviewHandler(notifier, logger).Subscribe(d)
	return true, nil
}

// ProvideValidationConfig loads the ValidationConfig file, or the defaults
// for projectID when no file is configured
func ProvideValidationConfig(cfg config.ValidationFile, logger *zap.Logger) (*config.ValidationConfig, error) {
	if cfg.ConfigPath == "" {
		return config.DefaultValidationConfig(cfg.ProjectID), nil
	}
	return config.NewConfigManager(logger).LoadAndValidate(cfg.ConfigPath)
}

// ProvideEngine creates an initialized engine with every catalog validator
// registered
func ProvideEngine(
	provider port.ContentGenerationProvider,
	vcfg *config.ValidationConfig,
	d dispatcher.Dispatcher,
	logger *zap.Logger,
) (*engine.Engine, error) {
	eng := engine.New(provider, logger, engine.WithDispatcher(d))
	if err := eng.Initialize(vcfg); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	catalog := ai.Catalog()
	for _, id := range ai.CatalogIDs() {
		if err := eng.RegisterValidatorFactory(catalog[id]); err != nil {
			return nil, fmt.Errorf("failed to register validator %s: %w", id, err)
		}
	}
	return eng, nil
}
