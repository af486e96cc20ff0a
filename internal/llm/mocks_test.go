package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// mockProvider records every request and answers through generateFunc
type mockProvider struct {
	name         string
	generateFunc func(ctx context.Context, request ImageRequest) (*models.ImageData, error)

	mu       sync.Mutex
	requests []ImageRequest
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) GenerateImage(ctx context.Context, request ImageRequest) (*models.ImageData, error) {
	m.mu.Lock()
	m.requests = append(m.requests, request)
	m.mu.Unlock()

	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &models.ImageData{Data: []byte(request.Prompt), MimeType: "image/png"}, nil
}

func (m *mockProvider) prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.requests))
	for i, r := range m.requests {
		out[i] = r.Prompt
	}
	return out
}

// mockSource hands out a fixed provider and remembers what it was asked for
type mockSource struct {
	provider ImageProvider
	err      error

	gotModel      string
	gotCredential string
	calls         int
}

func (s *mockSource) GetProvider(_ context.Context, model, credential string) (ImageProvider, error) {
	s.calls++
	s.gotModel = model
	s.gotCredential = credential
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

// failOnVariation fails the slots whose prompt carries one of the given 1-based variation numbers
func failOnVariation(numbers ...int) func(context.Context, ImageRequest) (*models.ImageData, error) {
	return func(_ context.Context, request ImageRequest) (*models.ImageData, error) {
		for _, n := range numbers {
			if strings.HasSuffix(request.Prompt, fmt.Sprintf("(Variation %d)", n)) {
				return nil, fmt.Errorf("quota exceeded")
			}
		}
		return &models.ImageData{Data: []byte(request.Prompt), MimeType: "image/png"}, nil
	}
}

type mockContentGenerator struct {
	resp *genai.GenerateContentResponse
	err  error

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
}

func (m *mockContentGenerator) GenerateContent(
	_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	m.gotModel = model
	m.gotContents = contents
	m.gotConfig = config
	return m.resp, m.err
}

type mockImageEditor struct {
	resp *openai.ImagesResponse
	err  error

	gotParams openai.ImageEditParams
}

func (m *mockImageEditor) Edit(
	_ context.Context, body openai.ImageEditParams, _ ...option.RequestOption,
) (*openai.ImagesResponse, error) {
	m.gotParams = body
	return m.resp, m.err
}
