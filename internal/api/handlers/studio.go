package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/api/middleware"
	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/Conceptual-Machines/refinery-api/internal/credentials"
	"github.com/Conceptual-Machines/refinery-api/internal/llm"
	"github.com/Conceptual-Machines/refinery-api/internal/logger"
	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/gin-gonic/gin"
)

// ImageURL is where the studio serves the payload of node id
func ImageURL(id string) string {
	return "/api/studio/images/" + id
}

type StudioHandler struct {
	studio *services.StudioService
	store  credentials.Store
	cfg    *config.Config
}

func NewStudioHandler(studio *services.StudioService, store credentials.Store, cfg *config.Config) *StudioHandler {
	return &StudioHandler{studio: studio, store: store, cfg: cfg}
}

type StudioGenerateRequest struct {
	Prompt          string                `json:"prompt"`
	ReferenceImages []ReferenceImageInput `json:"referenceImages"`
	Count           int                   `json:"count"`
	Model           string                `json:"model"`
}

type StudioRefineRequest struct {
	TargetID    string `json:"targetId"`
	Instruction string `json:"instruction"`
	Model       string `json:"model"`
}

type SelectRequest struct {
	ID string `json:"id"`
}

type NavigateRequest struct {
	Direction string `json:"direction"`
}

type ModalRequest struct {
	Open bool `json:"open"`
}

// BatchResponse is the studio state after a generation or refinement plus the failed slots
type BatchResponse struct {
	State  studio.View        `json:"state"`
	Errors []models.SlotError `json:"errors"`
}

// GetState returns the caller's studio state
func (h *StudioHandler) GetState(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)
	c.JSON(http.StatusOK, studio.NewView(h.studio.State(sessionID), ImageURL))
}

// Generate replaces the forest with a fresh batch. Accepts JSON or multipart/form-data with
// the reference files under "references".
func (h *StudioHandler) Generate(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)
	credential, ok := h.requireCredential(c)
	if !ok {
		return
	}

	in, err := h.bindGenerate(c)
	if err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}
	in.Credential = credential

	state, result, err := h.studio.Generate(c.Request.Context(), sessionID, in)
	if err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}

	logger.Info("Studio generation completed", logger.WithContext(c).With(logger.Fields{
		"roots":  len(state.Forest),
		"failed": len(result.Errors),
	}))

	c.JSON(http.StatusOK, newBatchResponse(state, result))
}

func (h *StudioHandler) bindGenerate(c *gin.Context) (services.GenerateInput, error) {
	maxBytes := h.cfg.MaxUploadBytes()
	limitBody(c.Writer, c.Request, maxBytes)

	var req StudioGenerateRequest
	var refs []models.ReferenceImage

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			return services.GenerateInput{}, bindError(err)
		}
		req.Prompt = c.PostForm("prompt")
		req.Model = c.PostForm("model")
		if raw := strings.TrimSpace(c.PostForm("count")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return services.GenerateInput{}, fmt.Errorf("%w: %q", services.ErrInvalidCount, raw)
			}
			req.Count = n
		}
		refs, err = readMultipartReferences(form.File[multipartReferenceField], maxBytes)
		if err != nil {
			return services.GenerateInput{}, err
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			return services.GenerateInput{}, bindError(err)
		}
		var err error
		refs, err = decodeReferences(req.ReferenceImages, maxBytes)
		if err != nil {
			return services.GenerateInput{}, err
		}
	}

	if err := validateModel(req.Model); err != nil {
		return services.GenerateInput{}, err
	}
	if len(refs) == 0 {
		return services.GenerateInput{}, services.ErrMissingReferences
	}
	if req.Count == 0 {
		req.Count = h.cfg.DefaultImageCount
	}
	if req.Count < services.MinInitialCount || req.Count > services.MaxInitialCount {
		return services.GenerateInput{}, fmt.Errorf("%w: %d (allowed %d-%d)",
			services.ErrInvalidCount, req.Count, services.MinInitialCount, services.MaxInitialCount)
	}

	return services.GenerateInput{
		Prompt:     req.Prompt,
		References: refs,
		Count:      req.Count,
		Model:      req.Model,
	}, nil
}

// Refine appends variations of the target node to it
func (h *StudioHandler) Refine(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)
	credential, ok := h.requireCredential(c)
	if !ok {
		return
	}

	var req StudioRefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), http.StatusBadGateway)
		return
	}
	if err := validateModel(req.Model); err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}

	state, result, err := h.studio.Refine(c.Request.Context(), sessionID, services.StudioRefineInput{
		Credential:  credential,
		TargetID:    req.TargetID,
		Instruction: req.Instruction,
		Model:       req.Model,
	})
	if err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, newBatchResponse(state, result))
}

// Select toggles the selection of a node
func (h *StudioHandler) Select(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), http.StatusInternalServerError)
		return
	}
	state, err := h.studio.Select(sessionID, req.ID)
	h.respondState(c, state, err)
}

// Navigate moves the selection to the previous or next sibling
func (h *StudioHandler) Navigate(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), http.StatusInternalServerError)
		return
	}
	key, ok := studio.ParseKey(req.Direction)
	if !ok {
		respondError(c, fmt.Errorf("%w: direction must be left or right", errInvalidRequest), http.StatusInternalServerError)
		return
	}
	state, err := h.studio.Navigate(sessionID, key)
	h.respondState(c, state, err)
}

// SetModal opens or closes the preview
func (h *StudioHandler) SetModal(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	var req ModalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), http.StatusInternalServerError)
		return
	}
	state, err := h.studio.SetModal(sessionID, req.Open)
	h.respondState(c, state, err)
}

// Image serves the raw bytes of one generated image
func (h *StudioHandler) Image(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	img, ok := h.studio.Image(sessionID, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "image not found",
			"request_id": c.GetString("request_id"),
		})
		return
	}

	c.Header("Cache-Control", imageCacheControl)
	c.Data(http.StatusOK, img.MimeType, img.Data)
}

func (h *StudioHandler) respondState(c *gin.Context, state studio.State, err error) {
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, studio.NewView(state, ImageURL))
}

// credential returns the stored key, or "" which the services reject as missing
func (h *StudioHandler) credential(c *gin.Context) string {
	key, err := h.store.Get(c.Request)
	if err != nil {
		return ""
	}
	return key
}

// requireCredential answers 401 and reports false when the caller has no stored API key,
// before any of the request body is read
func (h *StudioHandler) requireCredential(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(h.credential(c))
	if key == "" {
		respondError(c, services.ErrMissingCredential, http.StatusBadGateway)
		return "", false
	}
	return key, true
}

func validateModel(model string) error {
	if model != "" && llm.ProviderNameForModel(model) == "" {
		return fmt.Errorf("%w: %s", errUnknownModel, model)
	}
	return nil
}

func newBatchResponse(state studio.State, result *models.BatchResult) BatchResponse {
	resp := BatchResponse{
		State:  studio.NewView(state, ImageURL),
		Errors: []models.SlotError{},
	}
	if result != nil && result.Errors != nil {
		resp.Errors = result.Errors
	}
	return resp
}
