package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chatbot/internal/completion"
	"chatbot/internal/completion/cohere"
	"chatbot/internal/completion/gemini"
	"chatbot/internal/completion/openai"
	"chatbot/internal/config"
	"chatbot/internal/storage"
	"chatbot/internal/storage/ch"
	"chatbot/internal/storage/memory"
)

// newLogger builds a zap logger for LOG_LEVEL and LOG_FORMAT
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT: %s (expected json or console)", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// modelGateway is a gateway that knows which model it talks to
type modelGateway interface {
	completion.Gateway
	Model() string
}

// newGateway creates the client for the configured provider and returns the resolved model
func newGateway(ctx context.Context, cfg *config.Config) (completion.Gateway, string, error) {
	var (
		gw  modelGateway
		err error
	)

	switch cfg.Provider {
	case config.ProviderCohere:
		var opts []cohere.Option
		if cfg.BaseURL != "" {
			opts = append(opts, cohere.WithBaseURL(cfg.BaseURL))
		}
		gw, err = cohere.NewClient(cfg.APIKey, cfg.Model, opts...)
	case config.ProviderGemini:
		gw, err = gemini.NewClient(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderOpenAI:
		gw, err = openai.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, "", err
	}

	return gw, gw.Model(), nil
}

// newJournal opens the usage journal backend. It returns nil when the journal is disabled.
func newJournal(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Journal {
	case config.JournalNone:
		return nil, nil
	case config.JournalMemory:
		logger.Info("Using in-memory usage journal", zap.Int("recent_records", memory.DefaultRecentLimit))
		return memory.NewJournal(memory.DefaultRecentLimit), nil
	case config.JournalClickHouse:
		tlsStatus := "without TLS"
		if cfg.ClickHouseUseTLS {
			tlsStatus = "with TLS"
		}
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.String("tls", tlsStatus),
		)
		db, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported usage journal: %s", cfg.Journal)
	}
}
