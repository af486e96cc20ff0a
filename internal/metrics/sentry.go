package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	// Create a span for API request tracking using the request context
	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordBatch records the outcome of one batch call on the current transaction and a child span
func (m *SentryMetrics) RecordBatch(ctx context.Context, batch Batch) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("image.kind", batch.Kind)
		transaction.SetTag("image.model", batch.Model)
		transaction.SetData("image.requested", batch.Requested)
		transaction.SetData("image.succeeded", batch.Succeeded)
	}

	span := sentry.StartSpan(ctx, "image.batch")
	defer span.Finish()

	span.SetTag("kind", batch.Kind)
	span.SetTag("model", batch.Model)
	span.SetTag("success", fmt.Sprintf("%t", batch.Err == nil))

	span.SetData("duration_ms", batch.Duration.Milliseconds())
	span.SetData("requested", batch.Requested)
	span.SetData("succeeded", batch.Succeeded)
	span.SetData("failed_slots", batch.Requested-batch.Succeeded)

	if batch.Err != nil {
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Description = fmt.Sprintf("Image Batch: %s %d/%d", batch.Kind, batch.Succeeded, batch.Requested)
}
