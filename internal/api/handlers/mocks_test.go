package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/Conceptual-Machines/refinery-api/internal/credentials"
	"github.com/Conceptual-Machines/refinery-api/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fakeGenerator returns one PNG per slot unless told to fail
type fakeGenerator struct {
	mu        sync.Mutex
	requests  []models.BatchRequest
	err       error
	failSlots map[int]bool
}

func (f *fakeGenerator) GenerateBatch(_ context.Context, req models.BatchRequest) (*models.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if f.err != nil {
		return nil, f.err
	}
	result := &models.BatchResult{Images: make([]*models.ImageData, req.Count)}
	for i := 0; i < req.Count; i++ {
		if f.failSlots[i] {
			result.Errors = append(result.Errors, models.SlotError{Index: i, Message: "blocked by safety filter"})
			continue
		}
		result.Images[i] = &models.ImageData{Data: append([]byte{}, pngHeader...), MimeType: "image/png"}
	}
	return result, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGenerator) lastRequest() models.BatchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// memStore is an in-memory credentials.Store for a single caller
type memStore struct {
	mu        sync.Mutex
	sessionID string
	key       string
	failSet   bool
}

func (m *memStore) Get(*http.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == "" {
		return "", credentials.ErrNoCredential
	}
	return m.key, nil
}

func (m *memStore) Set(_ http.ResponseWriter, _ *http.Request, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("cookie write failed")
	}
	if key == "" {
		return credentials.ErrNoCredential
	}
	m.key = key
	return nil
}

func (m *memStore) Clear(http.ResponseWriter, *http.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = ""
	return nil
}

func (m *memStore) SessionID(http.ResponseWriter, *http.Request) (string, error) {
	return m.sessionID, nil
}
