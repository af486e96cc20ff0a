package llm

import (
	"context"
	"errors"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
)

var (
	// ErrNoImage is returned when a provider answers without any image payload
	ErrNoImage = errors.New("response contained no image data")
	// ErrMissingCredential is returned when no API key accompanies a request
	ErrMissingCredential = errors.New("missing API credential")
	// ErrUnknownModel is returned when no provider serves the requested model
	ErrUnknownModel = errors.New("unknown image model")
)

// ImageProvider defines the interface for image generation back ends.
// One call produces exactly one image.
type ImageProvider interface {
	// GenerateImage renders a single image from the prompt and reference images
	GenerateImage(ctx context.Context, request ImageRequest) (*models.ImageData, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// ImageRequest contains all parameters needed for a single image
type ImageRequest struct {
	Model           string
	Prompt          string
	ReferenceImages []models.ReferenceImage
}

// ProviderSource resolves the provider serving a model for a given credential
type ProviderSource interface {
	GetProvider(ctx context.Context, model, credential string) (ImageProvider, error)
}
