package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/liamashdown/resolvewatch/internal/secrets"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	LogLevel    string
	LogFormat   string // json, text

	// HTTP
	Port int

	// Scheduler
	SchedulerInterval time.Duration

	// Resolution policy
	ConfidenceThreshold   float64
	ResolutionMaxAttempts int // 0 = retry forever

	// AI resolver (OpenRouter)
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	AIModel           string
	AITemperature     float64
	AIMaxTokens       int
	AIMaxWebResults   int
	ResolverRPS       float64
	ResolverTimeout   time.Duration

	// Gamma API
	GammaAPIBaseURL string
	GammaAPIRPS     float64

	// Audit mirror (optional)
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// Alerts
	AlertMode          string // comma-separated: log, discord, smtp
	DiscordWebhookURLs []string
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPFrom           string
	SMTPTo             []string

	// Demo data
	SeedDemoMarkets bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory, if present, is applied first without overriding
// variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Environment:           getEnv("ENVIRONMENT", "production"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		Port:                  getEnvInt("PORT", 3000),
		SchedulerInterval:     time.Duration(getEnvInt("SCHEDULER_INTERVAL_MS", 30000)) * time.Millisecond,
		ConfidenceThreshold:   getEnvFloat("CONFIDENCE_THRESHOLD", 0.6),
		ResolutionMaxAttempts: getEnvInt("RESOLUTION_MAX_ATTEMPTS", 0),
		OpenRouterAPIKey:      secrets.GetOptionalSecret("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
		AIModel:               getEnv("AI_MODEL", "x-ai/grok-4.1-fast"),
		AITemperature:         getEnvFloat("AI_TEMPERATURE", 0.4),
		AIMaxTokens:           getEnvInt("AI_MAX_TOKENS", 4096),
		AIMaxWebResults:       getEnvInt("AI_MAX_WEB_RESULTS", 10),
		ResolverRPS:           getEnvFloat("RESOLVER_RPS", 1.0),
		ResolverTimeout:       time.Duration(getEnvInt("RESOLVER_TIMEOUT_SEC", 120)) * time.Second,
		GammaAPIBaseURL:       getEnv("GAMMA_API_BASE_URL", "https://gamma-api.polymarket.com"),
		GammaAPIRPS:           getEnvFloat("GAMMA_API_RPS", 5.0),
		DatabaseDSN:           secrets.GetOptionalSecret("DATABASE_DSN", ""),
		DatabaseMaxConns:      getEnvInt("DATABASE_MAX_CONNS", 10),
		DatabaseMaxIdleTime:   time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,
		AlertMode:             getEnv("ALERT_MODE", "log"),
		DiscordWebhookURLs:    parseCSV(secrets.GetOptionalSecret("DISCORD_WEBHOOK_URLS", "")),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvInt("SMTP_PORT", 587),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPassword:          secrets.GetOptionalSecret("SMTP_PASSWORD", ""),
		SMTPFrom:              getEnv("SMTP_FROM", "resolvewatch@example.com"),
		SMTPTo:                parseCSV(getEnv("SMTP_TO", "")),
		SeedDemoMarkets:       getEnvBool("SEED_DEMO_MARKETS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AlertModes returns the configured alert modes, trimmed
func (c *Config) AlertModes() []string {
	return parseCSV(c.AlertMode)
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL_MS must be positive")
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be between 0 and 1, got %v", c.ConfidenceThreshold)
	}

	if c.ResolutionMaxAttempts < 0 {
		return fmt.Errorf("RESOLUTION_MAX_ATTEMPTS must not be negative")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be json or text)", c.LogFormat)
	}

	modes := c.AlertModes()
	if len(modes) == 0 {
		return fmt.Errorf("ALERT_MODE must not be empty")
	}

	hasDiscord := false
	hasSMTP := false
	for _, mode := range modes {
		switch mode {
		case "log":
		case "discord":
			hasDiscord = true
		case "smtp":
			hasSMTP = true
		default:
			return fmt.Errorf("invalid ALERT_MODE value: %s (valid values: log, discord, smtp)", mode)
		}
	}

	if hasDiscord && len(c.DiscordWebhookURLs) == 0 {
		return fmt.Errorf("DISCORD_WEBHOOK_URLS is required when discord is in ALERT_MODE")
	}

	if hasSMTP && (c.SMTPHost == "" || len(c.SMTPTo) == 0) {
		return fmt.Errorf("SMTP_HOST and SMTP_TO are required when smtp is in ALERT_MODE")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCSV(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
