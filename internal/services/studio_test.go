package services

import (
	"context"
	"testing"
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/metrics"
	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStudio(gen *mockGenerator) (*StudioService, *memoryRecorder) {
	rec := &memoryRecorder{}
	svc := NewStudioService(newTestOrchestrator(gen), gen, studio.NewSessions(time.Hour), StudioOptions{
		Recorder:     rec,
		Counters:     metrics.NewCounters(),
		DefaultModel: "gemini-test",
	})
	return svc, rec
}

func generateRoots(t *testing.T, svc *StudioService, session string, count int) studio.State {
	t.Helper()
	state, _, err := svc.Generate(context.Background(), session, GenerateInput{
		Credential: "k",
		Prompt:     "a lighthouse",
		References: []models.ReferenceImage{{Data: []byte("upload"), MimeType: "image/png"}},
		Count:      count,
	})
	require.NoError(t, err)
	return state
}

func TestStudio_GenerateReplacesForestAndResetsSelection(t *testing.T) {
	gen := &mockGenerator{}
	svc, rec := newTestStudio(gen)

	first := generateRoots(t, svc, "s", 4)
	require.Len(t, first.Forest, 4)

	_, err := svc.Select("s", first.Forest[1].ID)
	require.NoError(t, err)

	gen.respond(mockResponse{images: []*models.ImageData{image("img0"), nil, image("img2"), nil, image("img4")}})
	second, result, err := svc.Generate(context.Background(), "s", GenerateInput{Credential: "k", Prompt: "new", Count: 5})
	require.NoError(t, err)

	assert.Len(t, second.Forest, 3)
	assert.Len(t, result.Errors, 2)
	assert.False(t, second.HasSelection())
	assert.Equal(t, "new", second.Prompt)
	assert.Greater(t, second.Epoch, first.Epoch)

	require.Len(t, rec.entries, 2)
	assert.Equal(t, models.GenerationKindInitial, rec.entries[1].Kind)
	assert.Equal(t, "gemini-test", rec.entries[1].Model)
	assert.Equal(t, 5, rec.entries[1].Requested)
	assert.Equal(t, 3, rec.entries[1].Succeeded)
}

func TestStudio_GenerateValidationMakesNoCall(t *testing.T) {
	gen := &mockGenerator{}
	svc, rec := newTestStudio(gen)

	_, _, err := svc.Generate(context.Background(), "s", GenerateInput{Prompt: "p", Count: 4})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, gen.calls())
	assert.Empty(t, rec.entries)
	assert.False(t, svc.State("s").GenerationPending)
}

func TestStudio_RefineAttachesChildrenAndClearsState(t *testing.T) {
	gen := &mockGenerator{}
	svc, rec := newTestStudio(gen)
	roots := generateRoots(t, svc, "s", 4)
	target := roots.Forest[2].ID

	_, err := svc.Select("s", target)
	require.NoError(t, err)

	state, result, err := svc.Refine(context.Background(), "s", StudioRefineInput{
		Credential: "k", TargetID: target, Instruction: "brighter colors",
	})
	require.NoError(t, err)
	assert.Len(t, result.Succeeded(), RefinementCount)

	assert.Len(t, childIDs(t, state.Forest, target), RefinementCount)
	for _, r := range state.Forest {
		if r.ID != target {
			assert.Empty(t, r.Children)
		}
	}
	assert.False(t, state.HasSelection())
	assert.False(t, state.RefinementPending())

	req := gen.lastRequest()
	require.Len(t, req.ReferenceImages, 2, "base upload plus target image")
	assert.Equal(t, []byte("upload"), req.ReferenceImages[0].Data)
	assert.Contains(t, req.Prompt, "a lighthouse")

	assert.Contains(t, req.Prompt, "brighter colors")

	last := rec.entries[len(rec.entries)-1]
	assert.Equal(t, models.GenerationKindRefinement, last.Kind)
	assert.Equal(t, target, last.TargetID)
	assert.Equal(t, len(req.Prompt), last.PromptChars, "log records the composed refinement prompt")
}

func TestStudio_RefineEmptyInstructionMakesNoCall(t *testing.T) {
	gen := &mockGenerator{}
	svc, _ := newTestStudio(gen)
	roots := generateRoots(t, svc, "s", 4)
	calls := gen.calls()

	_, _, err := svc.Refine(context.Background(), "s", StudioRefineInput{
		Credential: "k", TargetID: roots.Forest[0].ID, Instruction: "   ",
	})
	assert.ErrorIs(t, err, ErrEmptyInstruction)
	assert.Equal(t, calls, gen.calls())
	assert.False(t, svc.State("s").RefinementPending())
}

func TestStudio_RefineFailureClearsPendingOnly(t *testing.T) {
	gen := &mockGenerator{}
	svc, _ := newTestStudio(gen)
	roots := generateRoots(t, svc, "s", 4)
	target := roots.Forest[0].ID

	_, err := svc.Select("s", roots.Forest[1].ID)
	require.NoError(t, err)

	gen.respond(mockResponse{err: errTransport})
	state, _, err := svc.Refine(context.Background(), "s", StudioRefineInput{
		Credential: "k", TargetID: target, Instruction: "brighter",
	})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.False(t, state.RefinementPending())
	assert.Equal(t, roots.Forest[1].ID, state.SelectedID)
	assert.Empty(t, childIDs(t, state.Forest, target))
}

func TestStudio_SecondRefinementWhilePendingIsRejected(t *testing.T) {
	gen := &mockGenerator{}
	svc, _ := newTestStudio(gen)
	roots := generateRoots(t, svc, "s", 4)

	gen.mu.Lock()
	gen.block = make(chan struct{})
	gen.entered = make(chan struct{}, 1)
	gen.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, _, err := svc.Refine(context.Background(), "s", StudioRefineInput{
			Credential: "k", TargetID: roots.Forest[0].ID, Instruction: "first",
		})
		done <- err
	}()
	<-gen.entered

	assert.Equal(t, roots.Forest[0].ID, svc.State("s").PendingRefinementID)

	_, _, err := svc.Refine(context.Background(), "s", StudioRefineInput{
		Credential: "k", TargetID: roots.Forest[1].ID, Instruction: "second",
	})
	assert.ErrorIs(t, err, studio.ErrRefinementPending)
	assert.Equal(t, int64(1), svc.Counters().Snapshot().RejectedRefinements)

	close(gen.block)
	require.NoError(t, <-done)
	assert.False(t, svc.State("s").RefinementPending())
}

func TestStudio_RefinementLandingAfterRegenerationIsDiscarded(t *testing.T) {
	gen := &mockGenerator{}
	svc, _ := newTestStudio(gen)
	roots := generateRoots(t, svc, "s", 4)
	target := roots.Forest[0].ID

	gen.mu.Lock()
	gen.block = make(chan struct{})
	gen.entered = make(chan struct{}, 2)
	gen.mu.Unlock()

	refined := make(chan error, 1)
	go func() {
		_, _, err := svc.Refine(context.Background(), "s", StudioRefineInput{
			Credential: "k", TargetID: target, Instruction: "brighter",
		})
		refined <- err
	}()
	<-gen.entered

	regenerated := make(chan error, 1)
	go func() {
		_, _, err := svc.Generate(context.Background(), "s", GenerateInput{Credential: "k", Prompt: "fresh", Count: 4})
		regenerated <- err
	}()
	<-gen.entered

	// release both calls; the order in which they land must not matter
	close(gen.block)
	require.NoError(t, <-regenerated)
	err := <-refined

	state := svc.State("s")
	assert.Equal(t, "fresh", state.Prompt)
	assert.False(t, state.RefinementPending())
	for _, r := range state.Forest {
		assert.Empty(t, r.Children, "stale children must not attach to the new forest")
	}
	if err != nil {
		assert.ErrorIs(t, err, studio.ErrStaleResult)
	}
}

func TestStudio_SelectNavigateModal(t *testing.T) {
	svc, _ := newTestStudio(&mockGenerator{})
	roots := generateRoots(t, svc, "s", 4)

	state, err := svc.Select("s", roots.Forest[3].ID)
	require.NoError(t, err)
	assert.Equal(t, roots.Forest[3].ID, state.SelectedID)

	state, err = svc.Navigate("s", studio.KeyRight)
	require.NoError(t, err)
	assert.Equal(t, roots.Forest[0].ID, state.SelectedID)

	state, err = svc.SetModal("s", true)
	require.NoError(t, err)
	state, err = svc.Navigate("s", studio.KeyRight)
	require.NoError(t, err)
	assert.Equal(t, roots.Forest[0].ID, state.SelectedID, "navigation is ignored while the modal is open")

	img, ok := svc.Image("s", roots.Forest[0].ID)
	assert.True(t, ok)
	assert.Equal(t, "image/png", img.MimeType)

	_, ok = svc.Image("other", roots.Forest[0].ID)
	assert.False(t, ok)
}

func TestStudio_SessionsAreIsolated(t *testing.T) {
	svc, _ := newTestStudio(&mockGenerator{})
	generateRoots(t, svc, "alice", 4)

	assert.Len(t, svc.State("alice").Forest, 4)
	assert.Empty(t, svc.State("bob").Forest)
}

func TestStudio_Proxy(t *testing.T) {
	refs := []models.ReferenceImage{{Data: []byte("r"), MimeType: "image/png"}}

	tests := []struct {
		name string
		in   ProxyInput
		want error
	}{
		{name: "missing prompt", in: ProxyInput{Credential: "k", References: refs, Count: 4}, want: ErrMissingPrompt},
		{name: "missing references", in: ProxyInput{Credential: "k", Prompt: "p", Count: 4}, want: ErrMissingReferences},
		{name: "count too large", in: ProxyInput{Credential: "k", Prompt: "p", References: refs, Count: 11}, want: ErrInvalidCount},
		{name: "missing credential", in: ProxyInput{Prompt: "p", References: refs, Count: 4}, want: ErrMissingCredential},
		{name: "missing credential reported first", in: ProxyInput{Count: 40}, want: ErrMissingCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{}
			svc, _ := newTestStudio(gen)
			_, err := svc.Proxy(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, gen.calls())
		})
	}

	t.Run("prompt forwarded verbatim", func(t *testing.T) {
		gen := &mockGenerator{}
		svc, rec := newTestStudio(gen)
		result, err := svc.Proxy(context.Background(), ProxyInput{Credential: "k", Prompt: "raw (no style)", References: refs, Count: 3})
		require.NoError(t, err)
		assert.Len(t, result.Images, 3)
		assert.Equal(t, "raw (no style)", gen.lastRequest().Prompt)
		assert.Equal(t, models.GenerationKindProxy, rec.entries[0].Kind)
		assert.Equal(t, 0, svc.Sessions().Len())
	})
}
