package logger

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestFormatFields(t *testing.T) {
	assert.Empty(t, formatFields(nil))
	assert.Equal(t, "{count=3}", formatFields(Fields{"count": 3}))
	assert.Equal(t, "{ratio=0.50}", formatFields(Fields{"ratio": 0.5}))
}

func TestLoggingWithoutSentry(t *testing.T) {
	// must not panic when no Sentry client is bound
	Info("info", Fields{"k": "v"})
	Warn("warn", nil)
	Debug("debug", Fields{})
	Error("error", errors.New("boom"), Fields{"request_id": "r"})
	LogGenerationRequest(context.Background(), "gemini-x", time.Second, 4, 3, nil)
}

func TestFieldsWith(t *testing.T) {
	base := Fields{"a": 1, "b": 2}
	merged := base.With(Fields{"b": 3, "c": 4})

	assert.Equal(t, Fields{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, Fields{"a": 1, "b": 2}, base)
}

func TestLogAPIRequestLevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "[INFO] Request completed"},
		{http.StatusConflict, "[WARN] Request failed with client error"},
		{http.StatusBadGateway, "[ERROR] Request failed with server error"},
	}

	for _, tt := range tests {
		buf.Reset()
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/api/studio/refine", nil)
		c.Set("request_id", "req-9")

		LogAPIRequest(c, 15*time.Millisecond, tt.status, Fields{"session_id": "s1"})

		out := buf.String()
		assert.Contains(t, out, tt.level)
		assert.Contains(t, out, "path=/api/studio/refine")
		assert.Contains(t, out, "session_id=s1")
		assert.Contains(t, out, "request_id=req-9")
	}
}
