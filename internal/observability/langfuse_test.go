package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestInitializeLangfuseDisabled(t *testing.T) {
	client := InitializeLangfuse(context.Background(), &config.Config{LangfuseEnabled: false})
	assert.False(t, client.IsEnabled())
	assert.Same(t, client, GetClient())
}

func TestDisabledTraceIsNoop(t *testing.T) {
	client := &LangfuseClient{}
	trace := client.StartTrace(context.Background(), "image.refinement", map[string]interface{}{"target": "x"})
	gen := trace.Generation("batch", nil)

	// none of these may panic without a backing client
	gen.LogImageBatch("gemini-x", ImageBatch{Prompt: "p", Requested: 3, Succeeded: 1, Err: errors.New("boom")})
	gen.SetLevel(levelWarning)
	gen.Finish()
	trace.SetMetadata(map[string]interface{}{"k": "v"})
	trace.Finish()
}

func TestTraceSetMetadataMerges(t *testing.T) {
	trace := (&LangfuseClient{}).StartTrace(context.Background(), "image.initial", nil)

	trace.SetMetadata(map[string]interface{}{"session_id": "s1", "succeeded": 0})
	trace.SetMetadata(map[string]interface{}{"succeeded": 4, "failed_slots": 1})

	assert.Equal(t, map[string]interface{}{
		"session_id":   "s1",
		"succeeded":    4,
		"failed_slots": 1,
	}, trace.metadata)
}
