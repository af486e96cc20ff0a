package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/prompt"
)

// mockGenerator answers batch calls from a queue of scripted responses
type mockGenerator struct {
	mu        sync.Mutex
	requests  []models.BatchRequest
	responses []mockResponse

	// block, when set, holds every call until it is closed
	block   chan struct{}
	entered chan struct{}
}

type mockResponse struct {
	images []*models.ImageData
	err    error
}

func (m *mockGenerator) GenerateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	var resp mockResponse
	scripted := len(m.responses) > 0
	if scripted {
		resp = m.responses[0]
		m.responses = m.responses[1:]
	}
	block, entered := m.block, m.entered
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if resp.err != nil {
		return nil, resp.err
	}
	if !scripted {
		resp.images = images(req.Count, "img")
	}
	result := &models.BatchResult{Images: resp.images}
	for i, img := range resp.images {
		if img == nil {
			result.Errors = append(result.Errors, models.SlotError{Index: i, Message: "slot failed"})
		}
	}
	return result, nil
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockGenerator) lastRequest() models.BatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

func (m *mockGenerator) respond(resp ...mockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp...)
}

var errTransport = errors.New("connection reset")

func image(name string) *models.ImageData {
	return &models.ImageData{Data: []byte(name), MimeType: "image/png"}
}

func images(n int, prefix string) []*models.ImageData {
	out := make([]*models.ImageData, n)
	for i := range out {
		out[i] = image(fmt.Sprintf("%s-%d", prefix, i))
	}
	return out
}

// sequentialIDs makes record ids predictable: id-1, id-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestOrchestrator(gen *mockGenerator) *Orchestrator {
	o := NewOrchestrator(gen, prompt.NewPromptBuilderWithStyle("test style"))
	o.newID = sequentialIDs()
	return o
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []models.GenerationLog
}

func (r *memoryRecorder) Record(_ context.Context, entry *models.GenerationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}
