package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	providerNameOpenAI = "openai"
	defaultMimeType    = "image/png"
)

// imageEditor is the part of the OpenAI images service the provider uses
type imageEditor interface {
	Edit(ctx context.Context, body openai.ImageEditParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
}

// OpenAIImageProvider implements ImageProvider using the OpenAI images edit endpoint
type OpenAIImageProvider struct {
	images imageEditor
}

// NewOpenAIImageProvider creates a new OpenAI provider bound to one API key
func NewOpenAIImageProvider(apiKey string) *OpenAIImageProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIImageProvider{
		images: &client.Images,
	}
}

// Name returns the provider name
func (p *OpenAIImageProvider) Name() string {
	return providerNameOpenAI
}

// GenerateImage edits from the reference set; the decoded b64 payload of the first result is returned
func (p *OpenAIImageProvider) GenerateImage(ctx context.Context, request ImageRequest) (*models.ImageData, error) {
	startTime := time.Now()

	span := sentry.StartSpan(ctx, "openai.generate_image")
	defer span.Finish()
	span.SetTag("model", request.Model)
	span.SetTag("provider", providerNameOpenAI)

	if len(request.ReferenceImages) == 0 {
		return nil, fmt.Errorf("openai image edits need at least one reference image")
	}

	files := make([]io.Reader, len(request.ReferenceImages))
	for i, ref := range request.ReferenceImages {
		files[i] = openai.File(bytes.NewReader(ref.Data), referenceFilename(i, ref.MimeType), ref.MimeType)
	}

	params := openai.ImageEditParams{
		Image:  openai.ImageEditParamsImageUnion{OfFileArray: files},
		Prompt: request.Prompt,
		Model:  openai.ImageModel(request.Model),
		N:      openai.Int(1),
	}

	resp, err := p.images.Edit(span.Context(), params)
	if err != nil {
		log.Printf("❌ OPENAI IMAGE REQUEST FAILED after %v: %v", time.Since(startTime), err)
		span.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		span.SetTag("success", "false")
		return nil, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		span.SetTag("success", "false")
		return nil, fmt.Errorf("failed to decode openai image: %w", err)
	}

	span.SetTag("success", "true")
	log.Printf("✅ OPENAI IMAGE COMPLETED in %v (%d bytes)", time.Since(startTime), len(data))
	return &models.ImageData{Data: data, MimeType: defaultMimeType}, nil
}

func referenceFilename(i int, mimeType string) string {
	ext := "png"
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		ext = sub
	}
	return fmt.Sprintf("reference-%d.%s", i+1, ext)
}
