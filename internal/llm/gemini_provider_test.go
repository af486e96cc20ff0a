package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func imageResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: parts},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func TestGeminiImageProvider_Name(t *testing.T) {
	provider := &GeminiImageProvider{}
	assert.Equal(t, "gemini", provider.Name())
}

func TestGeminiImageProvider_GenerateImage(t *testing.T) {
	gen := &mockContentGenerator{resp: imageResponse(
		&genai.Part{Text: "here you go"},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png-bytes")}},
	)}
	provider := &GeminiImageProvider{models: gen}

	refs := []models.ReferenceImage{
		{Data: []byte("ref-1"), MimeType: "image/jpeg"},
		{Data: []byte("ref-2"), MimeType: "image/png"},
	}
	image, err := provider.GenerateImage(context.Background(), ImageRequest{
		Model:           "gemini-2.5-flash-image",
		Prompt:          "a lighthouse (Variation 1)",
		ReferenceImages: refs,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), image.Data)
	assert.Equal(t, "image/png", image.MimeType)

	assert.Equal(t, "gemini-2.5-flash-image", gen.gotModel)
	require.Len(t, gen.gotContents, 1)
	parts := gen.gotContents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, "a lighthouse (Variation 1)", parts[0].Text)
	assert.Equal(t, []byte("ref-1"), parts[1].InlineData.Data)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("ref-2"), parts[2].InlineData.Data)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, gen.gotConfig.ResponseModalities)
}

func TestGeminiImageProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		gen     *mockContentGenerator
		noImage bool
	}{
		{
			name: "transport failure",
			gen:  &mockContentGenerator{err: errors.New("503 unavailable")},
		},
		{
			name:    "no candidates",
			gen:     &mockContentGenerator{resp: &genai.GenerateContentResponse{}},
			noImage: true,
		},
		{
			name:    "text only",
			gen:     &mockContentGenerator{resp: imageResponse(&genai.Part{Text: "I cannot draw that"})},
			noImage: true,
		},
		{
			name: "blocked",
			gen: &mockContentGenerator{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}},
			noImage: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &GeminiImageProvider{models: tt.gen}
			image, err := provider.GenerateImage(context.Background(), ImageRequest{Model: "gemini-x", Prompt: "p"})
			assert.Error(t, err)
			assert.Nil(t, image)
			assert.Equal(t, tt.noImage, errors.Is(err, ErrNoImage))
		})
	}
}

func TestNewGeminiImageProvider(t *testing.T) {
	provider, err := NewGeminiImageProvider(context.Background(), "test-key")
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())
}
