package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/refinery-api/internal/credentials"
	"github.com/Conceptual-Machines/refinery-api/internal/logger"
	"github.com/gin-gonic/gin"
)

// CredentialHandler manages the caller's image API key. The key itself is never returned.
type CredentialHandler struct {
	store credentials.Store
}

func NewCredentialHandler(store credentials.Store) *CredentialHandler {
	return &CredentialHandler{store: store}
}

type SetCredentialRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

type CredentialStatus struct {
	Configured bool   `json:"configured"`
	Masked     string `json:"masked,omitempty"`
}

func (h *CredentialHandler) Get(c *gin.Context) {
	key, err := h.store.Get(c.Request)
	if err != nil {
		if !errors.Is(err, credentials.ErrNoCredential) {
			logger.Warn("Failed to read credential", logger.WithContext(c).With(logger.Fields{"error": err.Error()}))
		}
		c.JSON(http.StatusOK, CredentialStatus{Configured: false})
		return
	}
	c.JSON(http.StatusOK, CredentialStatus{Configured: true, Masked: credentials.Mask(key)})
}

func (h *CredentialHandler) Set(c *gin.Context) {
	var req SetCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), http.StatusInternalServerError)
		return
	}

	if err := h.store.Set(c.Writer, c.Request, req.APIKey); err != nil {
		if errors.Is(err, credentials.ErrNoCredential) {
			respondError(c, errInvalidRequest, http.StatusInternalServerError)
			return
		}
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	logger.Info("Credential stored", logger.WithContext(c))
	c.JSON(http.StatusOK, CredentialStatus{Configured: true, Masked: credentials.Mask(req.APIKey)})
}

func (h *CredentialHandler) Clear(c *gin.Context) {
	if err := h.store.Clear(c.Writer, c.Request); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, CredentialStatus{Configured: false})
}
