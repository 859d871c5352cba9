package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported AI providers
const (
	ProviderCohere = "cohere"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Bot modes
const (
	// ModeStateless treats every text message as a chat turn
	ModeStateless = "stateless"
	// ModeStateful requires /start before chatting and supports /end
	ModeStateful = "stateful"
)

// Usage journal backends
const (
	JournalMemory     = "memory"
	JournalClickHouse = "clickhouse"
	JournalNone       = "none"
)

// DefaultPreamble is the system instruction sent with every request
const DefaultPreamble = "You are a helpful and friendly chatbot. Be concise and clear in your responses."

// Config holds the application configuration
type Config struct {
	TelegramToken string

	// AI provider configuration
	Provider          string
	APIKey            string
	Model             string // empty selects the provider default
	BaseURL           string // optional endpoint override
	Temperature       float64
	MaxOutputTokens   int
	SystemPreamble    string
	HistoryWindow     int
	CompletionTimeout time.Duration

	// Bot mode configuration
	BotMode     string
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)
	Port        string

	// Logging
	LogLevel  string
	LogFormat string

	// Usage journal configuration
	Journal            string
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Provider and its API key (required)
	config.Provider = strings.ToLower(getEnv("AI_PROVIDER", ProviderCohere))
	keyVar, err := apiKeyVar(config.Provider)
	if err != nil {
		return nil, err
	}
	config.APIKey = strings.TrimSpace(os.Getenv(keyVar))
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s is required when AI_PROVIDER is %s", keyVar, config.Provider)
	}

	config.Model = os.Getenv("AI_MODEL")
	config.BaseURL = os.Getenv("AI_BASE_URL")

	if config.Temperature, err = parseFloat("AI_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("AI_TEMPERATURE must be between 0 and 2, got %v", config.Temperature)
	}

	if config.MaxOutputTokens, err = parseInt("AI_MAX_OUTPUT_TOKENS", 0); err != nil {
		return nil, err
	}
	if config.MaxOutputTokens < 0 {
		return nil, fmt.Errorf("AI_MAX_OUTPUT_TOKENS must not be negative")
	}

	config.SystemPreamble = DefaultPreamble
	if preamble, ok := os.LookupEnv("SYSTEM_PREAMBLE"); ok {
		// An explicitly empty value disables the preamble
		config.SystemPreamble = preamble
	}

	if config.HistoryWindow, err = parseInt("HISTORY_WINDOW", 5); err != nil {
		return nil, err
	}
	if config.HistoryWindow < 0 {
		return nil, fmt.Errorf("HISTORY_WINDOW must not be negative")
	}

	if config.CompletionTimeout, err = parseDuration("COMPLETION_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	// Bot mode configuration
	config.BotMode = strings.ToLower(getEnv("BOT_MODE", ModeStateless))
	if config.BotMode != ModeStateless && config.BotMode != ModeStateful {
		return nil, fmt.Errorf("invalid BOT_MODE: %s (expected %s or %s)", config.BotMode, ModeStateless, ModeStateful)
	}

	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = strings.TrimRight(os.Getenv("WEBHOOK_URL"), "/")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}

	config.Port = getEnv("PORT", "8080")
	if _, err := strconv.Atoi(config.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	config.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	config.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "json"))

	// Usage journal configuration
	config.Journal = strings.ToLower(getEnv("USAGE_JOURNAL", JournalMemory))
	switch config.Journal {
	case JournalMemory, JournalNone:
	case JournalClickHouse:
		if err := config.loadClickHouse(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid USAGE_JOURNAL: %s", config.Journal)
	}

	return config, nil
}

// LoadClickHouseFromEnv reads only the CLICKHOUSE_* variables, for tools that
// operate on the usage journal without running the bot
func LoadClickHouseFromEnv() (*Config, error) {
	config := &Config{Journal: JournalClickHouse}
	if err := config.loadClickHouse(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) loadClickHouse() error {
	c.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
	if c.ClickHouseHost == "" {
		return fmt.Errorf("CLICKHOUSE_HOST is required when USAGE_JOURNAL is clickhouse")
	}

	port, err := parseInt("CLICKHOUSE_PORT", 9000) // Default ClickHouse native port
	if err != nil {
		return err
	}
	c.ClickHousePort = port

	c.ClickHouseDatabase = getEnv("CLICKHOUSE_DATABASE", "default")
	c.ClickHouseUser = getEnv("CLICKHOUSE_USER", "default")
	c.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
	// Password is optional, can be empty

	c.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	return nil
}

// apiKeyVar returns the environment variable holding the provider's API key
func apiKeyVar(provider string) (string, error) {
	switch provider {
	case ProviderCohere:
		return "COHERE_API_KEY", nil
	case ProviderGemini:
		return "GEMINI_API_KEY", nil
	case ProviderOpenAI:
		return "OPENAI_API_KEY", nil
	default:
		return "", fmt.Errorf("unsupported AI_PROVIDER: %s", provider)
	}
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseFloat(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
