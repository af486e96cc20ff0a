package handlers

import (
	"net/http"

	apihandlers "github.com/Conceptual-Machines/refinery-api/internal/api/handlers"
	"github.com/Conceptual-Machines/refinery-api/internal/api/middleware"
	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/Conceptual-Machines/refinery-api/internal/credentials"
	"github.com/Conceptual-Machines/refinery-api/internal/logger"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/Conceptual-Machines/refinery-api/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

type WebHandler struct {
	studio *services.StudioService
	store  credentials.Store
	cfg    *config.Config
}

func NewWebHandler(studio *services.StudioService, store credentials.Store, cfg *config.Config) *WebHandler {
	return &WebHandler{studio: studio, store: store, cfg: cfg}
}

// Home renders the studio page for the caller's session
func (h *WebHandler) Home(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	data := templates.PageData{
		View:         studio.NewView(h.studio.State(sessionID), apihandlers.ImageURL),
		Callbacks:    templates.DefaultCallbacks,
		Generate:     "/api/studio/generate",
		Credential:   "/api/credential",
		DefaultCount: h.cfg.DefaultImageCount,
		MinCount:     services.MinInitialCount,
		MaxCount:     services.MaxInitialCount,
	}
	if key, err := h.store.Get(c.Request); err == nil {
		data.HasCredential = true
		data.MaskedKey = credentials.Mask(key)
	}

	h.render(c, templates.Page(data))
}

// ForestFragment renders just the forest, for in-page refreshes
func (h *WebHandler) ForestFragment(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)
	view := studio.NewView(h.studio.State(sessionID), apihandlers.ImageURL)
	h.render(c, templates.Forest(view, templates.DefaultCallbacks))
}

func (h *WebHandler) render(c *gin.Context, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		logger.Error("Failed to render template", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render template"})
	}
}
