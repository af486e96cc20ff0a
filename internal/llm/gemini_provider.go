package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	geminiUserRole     = "user"
	modalityText       = "TEXT"
	modalityImage      = "IMAGE"
)

// contentGenerator is the part of genai.Models the provider uses
type contentGenerator interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiImageProvider implements ImageProvider using Google's Gemini API
type GeminiImageProvider struct {
	models contentGenerator
}

// NewGeminiImageProvider creates a new Gemini provider bound to one API key
func NewGeminiImageProvider(ctx context.Context, apiKey string) (*GeminiImageProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiImageProvider{
		models: client.Models,
	}, nil
}

// Name returns the provider name
func (p *GeminiImageProvider) Name() string {
	return providerNameGemini
}

// GenerateImage sends the prompt followed by every reference image and returns the first image part
func (p *GeminiImageProvider) GenerateImage(ctx context.Context, request ImageRequest) (*models.ImageData, error) {
	startTime := time.Now()

	span := sentry.StartSpan(ctx, "gemini.generate_image")
	defer span.Finish()
	span.SetTag("model", request.Model)
	span.SetTag("provider", providerNameGemini)

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{modalityText, modalityImage},
	}

	result, err := p.models.GenerateContent(span.Context(), request.Model, buildGeminiContents(request), config)
	if err != nil {
		log.Printf("❌ GEMINI IMAGE REQUEST FAILED after %v: %v", time.Since(startTime), err)
		span.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	image, err := parseGeminiImage(result)
	if err != nil {
		span.SetTag("success", "false")
		return nil, err
	}

	span.SetTag("success", "true")
	log.Printf("✅ GEMINI IMAGE COMPLETED in %v (%s, %d bytes)", time.Since(startTime), image.MimeType, len(image.Data))
	return image, nil
}

// buildGeminiContents packs the text prompt and the references into one user turn
func buildGeminiContents(request ImageRequest) []*genai.Content {
	parts := make([]*genai.Part, 0, len(request.ReferenceImages)+1)
	parts = append(parts, &genai.Part{Text: request.Prompt})
	for _, ref := range request.ReferenceImages {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: ref.MimeType,
				Data:     ref.Data,
			},
		})
	}
	return []*genai.Content{{Role: geminiUserRole, Parts: parts}}
}

// parseGeminiImage returns the first inline-data part of the first candidate
func parseGeminiImage(resp *genai.GenerateContentResponse) (*models.ImageData, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates: %w", ErrNoImage)
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &models.ImageData{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("gemini stopped early (finish reason %s): %w", candidate.FinishReason, ErrNoImage)
	}
	return nil, ErrNoImage
}
