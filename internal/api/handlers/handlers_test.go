package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/api/middleware"
	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/Conceptual-Machines/refinery-api/internal/prompt"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router    *gin.Engine
	generator *fakeGenerator
	store     *memStore
	service   *services.StudioService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gen := &fakeGenerator{}
	store := &memStore{sessionID: "session-1", key: "sk-test-key-1234"}
	cfg := &config.Config{DefaultImageCount: 4, MaxUploadMB: 1}

	orch := services.NewOrchestrator(gen, prompt.NewPromptBuilderWithStyle("test style"))
	svc := services.NewStudioService(orch, gen, studio.NewSessions(time.Hour), services.StudioOptions{
		DefaultModel: "gemini-2.5-flash-image",
	})

	r := gin.New()
	r.POST("/api/generate", NewProxyHandler(svc, cfg).Generate)

	h := NewStudioHandler(svc, store, cfg)
	s := r.Group("/api/studio", middleware.StudioSession(store))
	s.GET("/state", h.GetState)
	s.POST("/generate", h.Generate)
	s.POST("/refine", h.Refine)
	s.POST("/select", h.Select)
	s.POST("/navigate", h.Navigate)
	s.POST("/modal", h.SetModal)
	s.GET("/images/:id", h.Image)

	ch := NewCredentialHandler(store)
	r.GET("/api/credential", ch.Get)
	r.PUT("/api/credential", ch.Set)
	r.DELETE("/api/credential", ch.Clear)

	r.GET("/health", NewHealthHandler(nil, svc.Sessions()).HealthCheck)
	r.GET("/api/metrics", NewMetricsHandler("test", svc.Counters(), svc.Sessions()).GetMetrics)

	return &testEnv{router: r, generator: gen, store: store, service: svc}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func pngReference() ReferenceImageInput {
	return ReferenceImageInput{Data: base64.StdEncoding.EncodeToString(pngHeader), MimeType: "image/png"}
}

// generate seeds the session with a forest of n roots
func (e *testEnv) generate(t *testing.T, n int) studio.View {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/studio/generate", StudioGenerateRequest{
		Prompt:          "a lighthouse at dusk",
		ReferenceImages: []ReferenceImageInput{pngReference()},
		Count:           n,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BatchResponse
	decode(t, w, &resp)
	return resp.State
}
