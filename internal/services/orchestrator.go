package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/prompt"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/Conceptual-Machines/refinery-api/internal/tree"
	"github.com/google/uuid"
)

const (
	// RefinementCount is the number of variations requested by every refinement
	RefinementCount = 3
	// MinInitialCount and MaxInitialCount bound the user-facing initial batch size
	MinInitialCount = 4
	MaxInitialCount = 10
)

var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrMissingPrompt     = errors.New("prompt is required")
	ErrMissingReferences = errors.New("at least one reference image is required")
	ErrInvalidCount      = errors.New("invalid image count")
	ErrEmptyInstruction  = errors.New("refinement instruction is required")
	ErrStaleTarget       = studio.ErrStaleTarget
	// ErrGenerationFailed wraps a batch call that failed as a whole
	ErrGenerationFailed = errors.New("image generation failed")
)

// BatchGenerator is the generation collaborator: one call, count independent images
type BatchGenerator interface {
	GenerateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResult, error)
}

// GenerateInput is an initial (root) generation request
type GenerateInput struct {
	Credential string
	Prompt     string
	References []models.ReferenceImage
	Count      int
	Model      string
}

// RefineInput is a refinement of one node of forest
type RefineInput struct {
	Credential     string
	Forest         models.Forest
	TargetID       string
	Instruction    string
	Content        string
	BaseReferences []models.ReferenceImage
	Model          string
}

// GenerateOutcome holds the new root forest and the raw batch result
type GenerateOutcome struct {
	Forest models.Forest
	Result *models.BatchResult
}

// RefineOutcome holds the updated forest, the records appended to the target and the raw batch result
type RefineOutcome struct {
	Forest   models.Forest
	Children []models.ImageRecord
	Result   *models.BatchResult
}

// Orchestrator turns generation and refinement requests into exactly one batch call each
type Orchestrator struct {
	generator BatchGenerator
	prompts   *prompt.Builder
	newID     func() string
	now       func() time.Time
}

func NewOrchestrator(generator BatchGenerator, prompts *prompt.Builder) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		prompts:   prompts,
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
}

// ValidateGenerate checks the preconditions of Generate without calling out
func (o *Orchestrator) ValidateGenerate(in GenerateInput) error {
	if strings.TrimSpace(in.Credential) == "" {
		return ErrMissingCredential
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return ErrMissingPrompt
	}
	if in.Count < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, in.Count)
	}
	return nil
}

// Generate requests a fresh set of roots. The returned forest replaces any previous one.
func (o *Orchestrator) Generate(ctx context.Context, in GenerateInput) (*GenerateOutcome, error) {
	if err := o.ValidateGenerate(in); err != nil {
		return nil, err
	}

	result, err := o.generator.GenerateBatch(ctx, models.BatchRequest{
		Prompt:          o.GenerationPrompt(in.Prompt),
		ReferenceImages: in.References,
		Count:           in.Count,
		Credential:      in.Credential,
		Model:           in.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	return &GenerateOutcome{
		Forest: models.Forest(o.wrap(result)),
		Result: result,
	}, nil
}

// ValidateRefine checks the call-free preconditions of Refine, in the order they are reported
func (o *Orchestrator) ValidateRefine(instruction, credential string) error {
	if strings.TrimSpace(credential) == "" {
		return ErrMissingCredential
	}
	if strings.TrimSpace(instruction) == "" {
		return ErrEmptyInstruction
	}
	return nil
}

// Refine re-submits the target's image as an extra reference and appends the surviving
// variations as its children. On failure the caller's forest is left untouched.
func (o *Orchestrator) Refine(ctx context.Context, in RefineInput) (*RefineOutcome, error) {
	if err := o.ValidateRefine(in.Instruction, in.Credential); err != nil {
		return nil, err
	}

	target, ok := tree.FindByID(in.Forest, in.TargetID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStaleTarget, in.TargetID)
	}

	refs := make([]models.ReferenceImage, 0, len(in.BaseReferences)+1)
	refs = append(refs, in.BaseReferences...)
	refs = append(refs, target.AsReference())

	result, err := o.generator.GenerateBatch(ctx, models.BatchRequest{
		Prompt:          o.RefinementPrompt(in.Content, in.Instruction),
		ReferenceImages: refs,
		Count:           RefinementCount,
		Credential:      in.Credential,
		Model:           in.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	children := o.wrap(result)
	forest, _ := tree.AddChildren(in.Forest, in.TargetID, children)
	return &RefineOutcome{
		Forest:   forest,
		Children: children,
		Result:   result,
	}, nil
}

// GenerationPrompt is the composed prompt Generate sends for content
func (o *Orchestrator) GenerationPrompt(content string) string {
	return o.prompts.BuildGenerationPrompt(content)
}

// RefinementPrompt is the composed prompt Refine sends for content and instruction
func (o *Orchestrator) RefinementPrompt(content, instruction string) string {
	return o.prompts.BuildRefinementPrompt(content, instruction)
}

// wrap turns the surviving slots of result into fresh childless records, in slot order
func (o *Orchestrator) wrap(result *models.BatchResult) []models.ImageRecord {
	images := result.Succeeded()
	records := make([]models.ImageRecord, 0, len(images))
	createdAt := o.now()
	for _, img := range images {
		records = append(records, models.NewImageRecord(o.newID(), img, createdAt))
	}
	return records
}
