package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/api"
	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/Conceptual-Machines/refinery-api/internal/credentials"
	"github.com/Conceptual-Machines/refinery-api/internal/database"
	"github.com/Conceptual-Machines/refinery-api/internal/llm"
	"github.com/Conceptual-Machines/refinery-api/internal/metrics"
	"github.com/Conceptual-Machines/refinery-api/internal/observability"
	"github.com/Conceptual-Machines/refinery-api/internal/prompt"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
	janitorInterval       = 10 * time.Minute
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "refinery-api@" + releaseVersion,         // Use embedded release version
			EnableTracing:    true,                                     // Enable tracing for spans
			TracesSampleRate: 1.0,                                      // 100% sampling for now, adjust based on volume
			EnableLogs:       true,                                     // Enable Sentry Logs feature
			Debug:            cfg.Environment != environmentProduction, // Enable debug in non-prod
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database is optional; without it generations are not persisted
	db := connectDatabase(cfg)

	// Langfuse tracing
	langfuse := observability.InitializeLangfuse(ctx, cfg)

	// CloudWatch metrics
	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment, cfg.CloudWatchEnabled)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}

	// Studio sessions, evicted once idle for longer than the session TTL
	sessions := studio.NewSessions(cfg.SessionTTL)
	go sessions.RunJanitor(ctx, janitorInterval, func(removed int) {
		log.Printf("🧹 Evicted %d idle studio sessions", removed)
	})

	counters := metrics.NewCounters()
	generator := llm.NewBatchGenerator(llm.NewProviderFactory(), cfg.ImageModel, cfg.MaxParallelSlots)
	orchestrator := services.NewOrchestrator(generator, prompt.NewPromptBuilder())
	studioService := services.NewStudioService(orchestrator, generator, sessions, services.StudioOptions{
		Recorder:     services.NewGenerationRecorder(db),
		Reporter:     metrics.Reporters{counters, cloudwatch},
		Counters:     counters,
		Langfuse:     langfuse,
		DefaultModel: cfg.ImageModel,
	})

	// Set Gin mode
	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(api.Deps{
		Config:     cfg,
		DB:         db,
		Studio:     studioService,
		Store:      credentials.NewCookieStore(cfg.SessionSecret, cfg.IsProduction(), cfg.SessionTTL),
		CloudWatch: cloudwatch,
		Version:    GetVersion(),
	})

	// Start server
	log.Printf("🚀 Starting server on port %s (image model: %s)", cfg.Port, cfg.ImageModel)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

// connectDatabase opens and migrates the generation log database, or returns nil when it is
// not configured or unreachable
func connectDatabase(cfg *config.Config) *gorm.DB {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		if errors.Is(err, database.ErrNotConfigured) {
			log.Println("⚠️  DATABASE_URL not set, generation log disabled")
		} else {
			sentry.CaptureException(err)
			log.Printf("⚠️  Failed to connect to database, generation log disabled: %v", err)
		}
		return nil
	}

	if err := database.Migrate(db); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to run migrations:", err)
	}
	return db
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
