package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
// API keys here are only fallbacks for the terminal front end; browser users bring their own.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Image generation
	GeminiAPIKey      string // Google Gemini API key
	OpenAIAPIKey      string // OpenAI API key for gpt-image models
	ImageModel        string // Default model for batch generation
	DefaultImageCount int    // Initial batch size when a request omits it
	MaxParallelSlots  int    // Upper bound on concurrent single-image calls per batch
	MaxUploadMB       int    // Per-request cap on uploaded reference images

	// Sessions
	SessionSecret string        // Key for signing and encrypting the session cookie
	SessionTTL    time.Duration // Idle studio sessions are evicted after this

	// Persistence (optional)
	DatabaseURL string // Postgres DSN for the generation log

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
	CloudWatchEnabled bool   // Publish batch metrics to CloudWatch
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		ImageModel:        getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
		DefaultImageCount: getEnvInt("DEFAULT_IMAGE_COUNT", 4),
		MaxParallelSlots:  getEnvInt("MAX_PARALLEL_SLOTS", 10),
		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", 20),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		CloudWatchEnabled: getEnv("CLOUDWATCH_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MaxUploadBytes returns the upload cap in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// FallbackAPIKey returns the configured key for the named provider, if any
func (c *Config) FallbackAPIKey(providerName string) string {
	switch providerName {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return ""
	}
}
