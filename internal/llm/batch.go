package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/prompt"
	"github.com/getsentry/sentry-go"
	"golang.org/x/sync/errgroup"
)

const defaultMaxParallelSlots = 10

// BatchGenerator fans a batch request out as independent single-image calls
type BatchGenerator struct {
	providers    ProviderSource
	defaultModel string
	maxParallel  int
}

// NewBatchGenerator creates a generator. maxParallel <= 0 uses the default bound.
func NewBatchGenerator(providers ProviderSource, defaultModel string, maxParallel int) *BatchGenerator {
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallelSlots
	}
	return &BatchGenerator{
		providers:    providers,
		defaultModel: defaultModel,
		maxParallel:  maxParallel,
	}
}

// DefaultModel returns the model used when a request names none
func (g *BatchGenerator) DefaultModel() string {
	return g.defaultModel
}

// GenerateBatch issues req.Count parallel requests that share the prompt and references, each
// with its own variation suffix. A failed slot is reported in Errors and leaves a nil image; only
// request-level problems fail the whole batch.
func (g *BatchGenerator) GenerateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResult, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("batch count must be at least 1, got %d", req.Count)
	}

	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = g.defaultModel
	}

	provider, err := g.providers.GetProvider(ctx, model, req.Credential)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	log.Printf("🖼️  BATCH STARTED (provider: %s, model: %s, slots: %d, refs: %d)",
		provider.Name(), model, req.Count, len(req.ReferenceImages))

	transaction := sentry.StartTransaction(ctx, "llm.generate_batch")
	defer transaction.Finish()
	transaction.SetTag("model", model)
	transaction.SetTag("provider", provider.Name())

	images := make([]*models.ImageData, req.Count)
	slotErrs := make([]error, req.Count)

	group, groupCtx := errgroup.WithContext(transaction.Context())
	group.SetLimit(g.maxParallel)

	for i := 0; i < req.Count; i++ {
		slot := i
		group.Go(func() error {
			image, err := provider.GenerateImage(groupCtx, ImageRequest{
				Model:           model,
				Prompt:          prompt.WithVariation(req.Prompt, slot),
				ReferenceImages: req.ReferenceImages,
			})
			if err != nil {
				slotErrs[slot] = err
				return nil
			}
			images[slot] = image
			return nil
		})
	}
	// slot goroutines never return errors
	_ = group.Wait()

	result := &models.BatchResult{Images: images}
	for i, err := range slotErrs {
		if err != nil {
			log.Printf("⚠️  Slot %d failed: %v", i, err)
			result.Errors = append(result.Errors, models.SlotError{Index: i, Message: err.Error()})
		}
	}

	transaction.SetTag("failed_slots", fmt.Sprintf("%d", len(result.Errors)))
	log.Printf("✅ BATCH COMPLETED in %v (%d/%d images)",
		time.Since(startTime), req.Count-len(result.Errors), req.Count)
	return result, nil
}
