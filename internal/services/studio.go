package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/logger"
	"github.com/Conceptual-Machines/refinery-api/internal/metrics"
	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/observability"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/Conceptual-Machines/refinery-api/internal/tree"
)

// StudioOptions carries the optional collaborators of StudioService; nil fields get no-op defaults
type StudioOptions struct {
	Recorder     GenerationRecorder
	Reporter     metrics.Reporter
	Counters     *metrics.Counters
	Sentry       *metrics.SentryMetrics
	Langfuse     *observability.LangfuseClient
	DefaultModel string
}

// StudioService runs generations and refinements against per-session studio state
type StudioService struct {
	orchestrator *Orchestrator
	generator    BatchGenerator
	sessions     *studio.Sessions

	recorder     GenerationRecorder
	reporter     metrics.Reporter
	counters     *metrics.Counters
	sentry       *metrics.SentryMetrics
	langfuse     *observability.LangfuseClient
	defaultModel string
}

func NewStudioService(
	orchestrator *Orchestrator, generator BatchGenerator, sessions *studio.Sessions, opts StudioOptions,
) *StudioService {
	s := &StudioService{
		orchestrator: orchestrator,
		generator:    generator,
		sessions:     sessions,
		recorder:     opts.Recorder,
		reporter:     opts.Reporter,
		counters:     opts.Counters,
		sentry:       opts.Sentry,
		langfuse:     opts.Langfuse,
		defaultModel: opts.DefaultModel,
	}
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.counters == nil {
		s.counters = metrics.NewCounters()
	}
	if s.reporter == nil {
		s.reporter = s.counters
	}
	if s.sentry == nil {
		s.sentry = metrics.NewSentryMetrics()
	}
	if s.langfuse == nil {
		s.langfuse = observability.GetClient()
	}
	return s
}

// Counters returns the process totals the service reports into
func (s *StudioService) Counters() *metrics.Counters {
	return s.counters
}

// Sessions returns the session registry
func (s *StudioService) Sessions() *studio.Sessions {
	return s.sessions
}

// State returns a snapshot of the session's state, creating an empty session on first use
func (s *StudioService) State(sessionID string) studio.State {
	return s.sessions.Get(sessionID).Snapshot()
}

// Image returns the image of node id in the session's forest
func (s *StudioService) Image(sessionID, id string) (models.ImageData, bool) {
	session, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return models.ImageData{}, false
	}
	node, ok := tree.FindByID(session.Snapshot().Forest, id)
	if !ok {
		return models.ImageData{}, false
	}
	return node.Image, true
}

// Select toggles the selection of node id
func (s *StudioService) Select(sessionID, id string) (studio.State, error) {
	return s.sessions.Get(sessionID).Dispatch(studio.SelectToggled{ID: id})
}

// Navigate moves the selection to the previous or next sibling
func (s *StudioService) Navigate(sessionID string, key studio.Key) (studio.State, error) {
	return s.sessions.Get(sessionID).Dispatch(studio.KeyPressed{Key: key})
}

// SetModal opens or closes the full-screen preview
func (s *StudioService) SetModal(sessionID string, open bool) (studio.State, error) {
	return s.sessions.Get(sessionID).Dispatch(studio.ModalToggled{Open: open})
}

// Generate replaces the session's forest with a fresh batch of roots. A run superseded by a
// later Generate on the same session is dropped with studio.ErrStaleResult.
func (s *StudioService) Generate(
	ctx context.Context, sessionID string, in GenerateInput,
) (studio.State, *models.BatchResult, error) {
	if err := s.orchestrator.ValidateGenerate(in); err != nil {
		return s.State(sessionID), nil, err
	}

	session := s.sessions.Get(sessionID)
	ticket, _ := session.StartGeneration()

	var outcome *GenerateOutcome
	result, err := s.observe(ctx, batchMeta{
		kind:       models.GenerationKindInitial,
		sessionID:  sessionID,
		model:      in.Model,
		prompt:     s.orchestrator.GenerationPrompt(in.Prompt),
		references: len(in.References),
		requested:  in.Count,
	}, func(ctx context.Context) (*models.BatchResult, error) {
		o, err := s.orchestrator.Generate(ctx, in)
		if err != nil {
			return nil, err
		}
		outcome = o
		return o.Result, nil
	})
	if err != nil {
		state, dispatchErr := session.Dispatch(studio.GenerationFailed{Ticket: ticket})
		if errors.Is(dispatchErr, studio.ErrStaleResult) {
			s.staleResult(sessionID, "Ignoring failure of a superseded generation", logger.Fields{"ticket": ticket})
		}
		return state, nil, err
	}

	state, err := session.Dispatch(studio.GenerationSucceeded{
		Ticket:     ticket,
		Prompt:     in.Prompt,
		References: in.References,
		Roots:      outcome.Forest,
	})
	if err != nil {
		s.staleResult(sessionID, "Discarding superseded generation", logger.Fields{"ticket": ticket})
		return state, result, err
	}

	logger.Info("Forest replaced", logger.Fields{
		"session_id": sessionID,
		"roots":      len(state.Forest),
		"epoch":      state.Epoch,
	})
	return state, result, nil
}

// StudioRefineInput names the target and instruction plus the caller's credential.
// Content and base references come from the run that produced the current forest.
type StudioRefineInput struct {
	Credential  string
	TargetID    string
	Instruction string
	Model       string
}

// Refine appends RefinementCount variations of the target to it. Only one refinement per
// session may be in flight; a result that lands after the forest was replaced is discarded.
func (s *StudioService) Refine(
	ctx context.Context, sessionID string, in StudioRefineInput,
) (studio.State, *models.BatchResult, error) {
	if err := s.orchestrator.ValidateRefine(in.Instruction, in.Credential); err != nil {
		return s.State(sessionID), nil, err
	}

	session := s.sessions.Get(sessionID)
	started, err := session.Dispatch(studio.RefinementStarted{TargetID: in.TargetID})
	if err != nil {
		if errors.Is(err, studio.ErrRefinementPending) {
			s.counters.RejectedRefinement()
		}
		return started, nil, err
	}

	var outcome *RefineOutcome
	result, err := s.observe(ctx, batchMeta{
		kind:       models.GenerationKindRefinement,
		sessionID:  sessionID,
		targetID:   in.TargetID,
		model:      in.Model,
		prompt:     s.orchestrator.RefinementPrompt(started.Prompt, in.Instruction),
		references: len(started.References) + 1,
		requested:  RefinementCount,
	}, func(ctx context.Context) (*models.BatchResult, error) {
		o, err := s.orchestrator.Refine(ctx, RefineInput{
			Credential:     in.Credential,
			Forest:         started.Forest,
			TargetID:       in.TargetID,
			Instruction:    in.Instruction,
			Content:        started.Prompt,
			BaseReferences: started.References,
			Model:          in.Model,
		})
		if err != nil {
			return nil, err
		}
		outcome = o
		return o.Result, nil
	})
	if err != nil {
		state, dispatchErr := session.Dispatch(studio.RefinementFailed{TargetID: in.TargetID, Epoch: started.Epoch})
		if dispatchErr != nil {
			state = session.Snapshot()
		}
		return state, nil, err
	}

	state, err := session.Dispatch(studio.RefinementSucceeded{
		TargetID: in.TargetID,
		Epoch:    started.Epoch,
		Children: outcome.Children,
	})
	if err != nil {
		s.staleResult(sessionID, "Discarding refinement of a replaced forest", logger.Fields{
			"target_id": in.TargetID,
			"epoch":     started.Epoch,
		})
		return state, result, err
	}
	return state, result, nil
}

// ProxyInput is a stateless batch request whose prompt is sent as given
type ProxyInput struct {
	Credential string
	Prompt     string
	References []models.ReferenceImage
	Count      int
	Model      string
}

// Proxy forwards one batch to the generation collaborator without touching any session
func (s *StudioService) Proxy(ctx context.Context, in ProxyInput) (*models.BatchResult, error) {
	switch {
	case strings.TrimSpace(in.Credential) == "":
		return nil, ErrMissingCredential
	case strings.TrimSpace(in.Prompt) == "":
		return nil, ErrMissingPrompt
	case len(in.References) == 0:
		return nil, ErrMissingReferences
	case in.Count < 1 || in.Count > MaxInitialCount:
		return nil, fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidCount, in.Count, MaxInitialCount)
	}

	return s.observe(ctx, batchMeta{
		kind:       models.GenerationKindProxy,
		model:      in.Model,
		prompt:     in.Prompt,
		references: len(in.References),
		requested:  in.Count,
	}, func(ctx context.Context) (*models.BatchResult, error) {
		result, err := s.generator.GenerateBatch(ctx, models.BatchRequest{
			Prompt:          in.Prompt,
			ReferenceImages: in.References,
			Count:           in.Count,
			Credential:      in.Credential,
			Model:           in.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		return result, nil
	})
}

func (s *StudioService) staleResult(sessionID, msg string, fields logger.Fields) {
	s.counters.StaleResult()
	fields["session_id"] = sessionID
	logger.Warn(msg, fields)
}
