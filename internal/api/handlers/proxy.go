package handlers

import (
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ProxyHandler serves the stateless batch generation endpoint
type ProxyHandler struct {
	studio *services.StudioService
	cfg    *config.Config
}

func NewProxyHandler(studio *services.StudioService, cfg *config.Config) *ProxyHandler {
	return &ProxyHandler{studio: studio, cfg: cfg}
}

type ProxyRequest struct {
	Prompt          string                `json:"prompt"`
	ReferenceImages []ReferenceImageInput `json:"referenceImages"`
	Count           int                   `json:"count"`
	APIKey          string                `json:"apiKey"`
	Model           string                `json:"model"` // Optional, defaults to IMAGE_MODEL
}

// ProxyResponse carries one entry per slot: a data URL, or null for a failed slot
type ProxyResponse struct {
	Images []*string           `json:"images"`
	Errors []models.SlotError `json:"errors"`
}

// Generate fans the request out as count single-image calls and returns every slot
func (h *ProxyHandler) Generate(c *gin.Context) {
	limitBody(c.Writer, c.Request, h.cfg.MaxUploadBytes())

	var req ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), http.StatusInternalServerError)
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		respondError(c, services.ErrMissingCredential, http.StatusInternalServerError)
		return
	}

	if req.Count == 0 {
		req.Count = h.cfg.DefaultImageCount
	}
	if err := validateModel(req.Model); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	refs, err := decodeReferences(req.ReferenceImages, h.cfg.MaxUploadBytes())
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	result, err := h.studio.Proxy(c.Request.Context(), services.ProxyInput{
		Credential: strings.TrimSpace(req.APIKey),
		Prompt:     req.Prompt,
		References: refs,
		Count:      req.Count,
		Model:      req.Model,
	})
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, newProxyResponse(result))
}

func newProxyResponse(result *models.BatchResult) ProxyResponse {
	resp := ProxyResponse{
		Images: result.DataURLs(),
		Errors: result.Errors,
	}
	if resp.Errors == nil {
		resp.Errors = []models.SlotError{}
	}
	return resp
}
