package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/api/middleware"
	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/Conceptual-Machines/refinery-api/internal/credentials"
	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/prompt"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct{}

func (stubGenerator) GenerateBatch(_ context.Context, req models.BatchRequest) (*models.BatchResult, error) {
	result := &models.BatchResult{Images: make([]*models.ImageData, req.Count)}
	for i := range result.Images {
		result.Images[i] = &models.ImageData{Data: []byte("img"), MimeType: "image/png"}
	}
	return result, nil
}

type stubStore struct{ key string }

func (s stubStore) Get(*http.Request) (string, error) {
	if s.key == "" {
		return "", credentials.ErrNoCredential
	}
	return s.key, nil
}

func (stubStore) Set(http.ResponseWriter, *http.Request, string) error {
	return nil
}

func (stubStore) Clear(http.ResponseWriter, *http.Request) error {
	return nil
}

func (stubStore) SessionID(http.ResponseWriter, *http.Request) (string, error) {
	return "web-session", nil
}

func setup(t *testing.T, key string) (*gin.Engine, *services.StudioService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gen := stubGenerator{}
	svc := services.NewStudioService(
		services.NewOrchestrator(gen, prompt.NewPromptBuilder()), gen, studio.NewSessions(time.Hour), services.StudioOptions{},
	)
	store := stubStore{key: key}
	h := NewWebHandler(svc, store, &config.Config{DefaultImageCount: 4})

	r := gin.New()
	r.Use(middleware.StudioSession(store))
	r.GET("/", h.Home)
	r.GET("/htmx/forest", h.ForestFragment)
	return r, svc
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHome(t *testing.T) {
	r, _ := setup(t, "")
	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `id="credential"`)

	r, _ = setup(t, "AIzaSyExampleKey9876")
	w = get(r, "/")
	assert.Contains(t, w.Body.String(), "AIza••••9876")
	assert.NotContains(t, w.Body.String(), "AIzaSyExampleKey9876")
}

func TestForestFragment(t *testing.T) {
	r, svc := setup(t, "key")

	w := get(r, "/htmx/forest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No images yet")

	_, _, err := svc.Generate(context.Background(), "web-session", services.GenerateInput{
		Credential: "key",
		Prompt:     "a fox",
		References: []models.ReferenceImage{{Data: []byte("ref"), MimeType: "image/png"}},
		Count:      4,
	})
	require.NoError(t, err)

	w = get(r, "/htmx/forest")
	body := w.Body.String()
	assert.NotContains(t, body, "No images yet")
	assert.Contains(t, body, `/api/studio/images/`)
	assert.Contains(t, body, "depth-0")
}
