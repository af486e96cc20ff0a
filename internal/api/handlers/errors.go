package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/refinery-api/internal/llm"
	"github.com/Conceptual-Machines/refinery-api/internal/logger"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/gin-gonic/gin"
)

var (
	errInvalidReference = errors.New("invalid reference image")
	errUploadTooLarge   = errors.New("reference images exceed the upload limit")
	errTooManyImages    = errors.New("too many reference images")
	errUnknownModel     = errors.New("unsupported image model")
	errInvalidRequest   = errors.New("invalid request body")
)

// statusForError maps domain errors to HTTP status codes. upstream is the status used when
// the generation collaborator itself failed.
func statusForError(err error, upstream int) int {
	switch {
	case errors.Is(err, services.ErrMissingCredential), errors.Is(err, llm.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrMissingPrompt),
		errors.Is(err, services.ErrMissingReferences),
		errors.Is(err, services.ErrInvalidCount),
		errors.Is(err, services.ErrEmptyInstruction),
		errors.Is(err, errInvalidReference),
		errors.Is(err, errTooManyImages),
		errors.Is(err, errUnknownModel),
		errors.Is(err, errInvalidRequest),
		errors.Is(err, llm.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, studio.ErrStaleTarget):
		return http.StatusNotFound
	case errors.Is(err, studio.ErrRefinementPending), errors.Is(err, studio.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, services.ErrGenerationFailed):
		return upstream
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the JSON error envelope; server-side failures are logged with the request context
func respondError(c *gin.Context, err error, upstream int) {
	status := statusForError(err, upstream)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, logger.WithContext(c))
	}
	c.JSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString("request_id"),
	})
}
