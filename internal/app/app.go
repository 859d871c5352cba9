package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chatbot/internal/bot"
	"chatbot/internal/completion"
	"chatbot/internal/config"
	"chatbot/internal/prompt"
	"chatbot/internal/session"
	"chatbot/internal/storage"
)

// App represents the application
type App struct {
	config   *config.Config
	logger   *zap.Logger
	journal  storage.Storage // nil when USAGE_JOURNAL is none
	sessions *session.MemoryStore
	gateway  completion.Gateway
	bot      *bot.Bot
	server   *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// config.env is written by cmd/setup; .env is the conventional fallback
	envLoaded := godotenv.Load("config.env") == nil
	if godotenv.Load() == nil {
		envLoaded = true
	}

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if !envLoaded {
		logger.Info("No config.env or .env file found, using system environment variables")
	}

	app := &App{
		config:   cfg,
		logger:   logger,
		sessions: session.NewMemoryStore(),
	}

	logger.Info("Starting chatbot...",
		zap.String("provider", cfg.Provider),
		zap.String("mode", cfg.BotMode),
		zap.Bool("webhook", cfg.WebhookMode),
	)

	// Initialize usage journal
	if err := app.initJournal(); err != nil {
		return nil, err
	}

	// Initialize completion provider
	if err := app.initGateway(); err != nil {
		return nil, err
	}

	// Initialize bot
	if err := app.initBot(); err != nil {
		return nil, err
	}

	// Initialize HTTP server
	app.initHTTPServer()

	return app, nil
}

// initJournal opens the usage journal selected by USAGE_JOURNAL
func (a *App) initJournal() error {
	journal, err := newJournal(a.config, a.logger)
	if err != nil {
		return err
	}
	if journal == nil {
		a.logger.Info("Usage journal disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := journal.Initialize(ctx); err != nil {
		journal.Close()
		return fmt.Errorf("failed to initialize usage journal: %w", err)
	}
	a.logger.Info("Usage journal initialized", zap.String("backend", a.config.Journal))

	a.journal = journal
	return nil
}

// initGateway creates the completion provider client
func (a *App) initGateway() error {
	gateway, model, err := newGateway(context.Background(), a.config)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", a.config.Provider, err)
	}
	a.config.Model = model
	a.gateway = completion.WithTimeout(gateway, a.config.CompletionTimeout)

	a.logger.Info("Completion provider ready",
		zap.String("provider", a.config.Provider),
		zap.String("model", model),
		zap.Duration("timeout", a.config.CompletionTimeout),
	)
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	opts := bot.Options{
		Mode:          bot.Mode(a.config.BotMode),
		Preamble:      a.config.SystemPreamble,
		HistoryWindow: a.config.HistoryWindow,
		Params: prompt.Params{
			Temperature:     prompt.Float(a.config.Temperature),
			MaxOutputTokens: a.config.MaxOutputTokens,
		},
		Model: a.config.Model,
	}

	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.sessions, a.gateway, a.journal, opts, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	a.bot = telegramBot
	return nil
}

// initHTTPServer initializes the HTTP server for health checks and webhook
func (a *App) initHTTPServer() {
	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      newRouter(a.bot, a.config.WebhookMode, a.logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Run starts the application and blocks until a shutdown signal arrives
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if a.config.WebhookMode {
		// Webhook mode: configure webhook and wait for HTTP requests
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			a.server.Close()
			_ = g.Wait()
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
		a.logger.Info("Webhook configured", zap.String("path", bot.WebhookPath))
	} else {
		// Polling mode: actively poll Telegram servers
		g.Go(func() error {
			if err := a.bot.Start(ctx); err != nil {
				return err
			}
			if ctx.Err() == nil {
				return errors.New("telegram update channel closed")
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("Shutting down...")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Finish updates that are still being answered
	a.bot.Wait()

	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Error("Error closing usage journal", zap.Error(err))
			return err
		}
	}

	a.logger.Info("Shutdown complete", zap.Int("sessions", a.sessions.Len()))
	_ = a.logger.Sync()
	return nil
}
