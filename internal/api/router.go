package api

import (
	"github.com/Conceptual-Machines/refinery-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/refinery-api/internal/api/middleware"
	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/Conceptual-Machines/refinery-api/internal/credentials"
	"github.com/Conceptual-Machines/refinery-api/internal/metrics"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	webhandlers "github.com/Conceptual-Machines/refinery-api/internal/web/handlers"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the collaborators the router wires into handlers. DB and CloudWatch may be nil.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Studio     *services.StudioService
	Store      credentials.Store
	CloudWatch *metrics.Client
	Version    string
}

func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.CloudWatch))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	cfg := deps.Config
	session := apimiddleware.StudioSession(deps.Store)

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Studio.Sessions())
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(deps.Version, deps.Studio.Counters(), deps.Studio.Sessions())
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Stateless proxy, the caller supplies its own key
	proxyHandler := handlers.NewProxyHandler(deps.Studio, cfg)
	router.POST("/api/generate", proxyHandler.Generate)

	// Web pages
	webHandler := webhandlers.NewWebHandler(deps.Studio, deps.Store, cfg)
	router.GET("/", session, webHandler.Home)
	router.GET("/htmx/forest", session, webHandler.ForestFragment)

	// Credential (stored in the session cookie)
	credential := router.Group("/api/credential")
	credential.Use(session)
	{
		credentialHandler := handlers.NewCredentialHandler(deps.Store)
		credential.GET("", credentialHandler.Get)
		credential.PUT("", credentialHandler.Set)
		credential.DELETE("", credentialHandler.Clear)
	}

	// Studio (per-session forest)
	studio := router.Group("/api/studio")
	studio.Use(session)
	{
		studioHandler := handlers.NewStudioHandler(deps.Studio, deps.Store, cfg)
		studio.GET("/state", studioHandler.GetState)
		studio.POST("/generate", studioHandler.Generate)
		studio.POST("/refine", studioHandler.Refine)
		studio.POST("/select", studioHandler.Select)
		studio.POST("/navigate", studioHandler.Navigate)
		studio.POST("/modal", studioHandler.SetModal)
		studio.GET("/images/:id", studioHandler.Image)
	}

	return router
}
