package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderFactory creates providers based on model name. Credentials are supplied per call
// since every user brings their own key.
type ProviderFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

// GetProvider returns the provider serving model, bound to credential
func (f *ProviderFactory) GetProvider(ctx context.Context, model, credential string) (ImageProvider, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}

	switch ProviderNameForModel(model) {
	case providerNameGemini:
		return NewGeminiImageProvider(ctx, credential)
	case providerNameOpenAI:
		return NewOpenAIImageProvider(credential), nil
	default:
		return nil, fmt.Errorf("%w: %s (allowed: gemini-*, gpt-image-*, dall-e-*)", ErrUnknownModel, model)
	}
}

// ProviderNameForModel infers the provider from the model name; "" when none matches
func ProviderNameForModel(model string) string {
	modelLower := strings.ToLower(strings.TrimSpace(model))

	switch {
	case strings.HasPrefix(modelLower, "gemini-"):
		return providerNameGemini
	case strings.HasPrefix(modelLower, "gpt-image-"), strings.HasPrefix(modelLower, "dall-e-"):
		return providerNameOpenAI
	default:
		return ""
	}
}
