package services

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/logger"
	"github.com/Conceptual-Machines/refinery-api/internal/metrics"
	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/observability"
)

type batchMeta struct {
	kind       string
	sessionID  string
	targetID   string
	model      string
	prompt     string
	references int
	requested  int
}

// observe runs one batch call and reports it to every sink: Langfuse, metrics, the log and
// the generation recorder
func (s *StudioService) observe(
	ctx context.Context, meta batchMeta, call func(context.Context) (*models.BatchResult, error),
) (*models.BatchResult, error) {
	if meta.model == "" {
		meta.model = s.defaultModel
	}
	requestID := logger.RequestIDFromContext(ctx)

	trace := s.langfuse.StartTrace(ctx, "image."+meta.kind, map[string]interface{}{
		"session_id": meta.sessionID,
		"request_id": requestID,
		"target_id":  meta.targetID,
	})
	defer trace.Finish()
	generation := trace.Generation("batch", nil)

	start := time.Now()
	result, err := call(ctx)
	duration := time.Since(start)

	fields := logger.Fields{
		"kind":       meta.kind,
		"session_id": meta.sessionID,
		"request_id": requestID,
	}

	succeeded := len(result.Succeeded())
	var slotErrors []string
	if result != nil {
		for _, e := range result.Errors {
			slotErrors = append(slotErrors, e.Message)
			logger.Debug("Image slot failed", fields.With(logger.Fields{"slot": e.Index, "error": e.Message}))
		}
	}
	outcome := map[string]interface{}{
		"requested":    meta.requested,
		"succeeded":    succeeded,
		"failed_slots": len(slotErrors),
	}
	if err != nil {
		outcome["error"] = err.Error()
	}
	trace.SetMetadata(outcome)

	batch := metrics.Batch{
		Kind:      meta.kind,
		Model:     meta.model,
		Requested: meta.requested,
		Succeeded: succeeded,
		Duration:  duration,
		Err:       err,
	}
	s.reporter.RecordBatch(batch)
	s.sentry.RecordBatch(ctx, batch)

	generation.LogImageBatch(meta.model, observability.ImageBatch{
		Prompt:         meta.prompt,
		ReferenceCount: meta.references,
		Requested:      meta.requested,
		Succeeded:      succeeded,
		SlotErrors:     slotErrors,
		Err:            err,
	})
	generation.Finish()

	if err != nil {
		logger.Error("Image batch failed", err, fields)
	} else {
		logger.LogGenerationRequest(ctx, meta.model, duration, meta.requested, succeeded, fields)
	}

	entry := &models.GenerationLog{
		SessionID:   meta.sessionID,
		RequestID:   requestID,
		Kind:        meta.kind,
		Model:       meta.model,
		TargetID:    meta.targetID,
		Requested:   meta.requested,
		Succeeded:   succeeded,
		ReferenceN:  meta.references,
		PromptChars: len(meta.prompt),
		DurationMS:  int(duration.Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if recErr := s.recorder.Record(ctx, entry); recErr != nil {
		logger.Warn("Failed to record generation", logger.Fields{"error": recErr.Error(), "kind": meta.kind})
	}

	return result, err
}
