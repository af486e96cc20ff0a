// Package studio holds the per-session application state of the image studio and the single
// reducer through which every selection, navigation, generation and refinement transition flows.
package studio

import (
	"errors"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
)

var (
	// ErrRefinementPending is returned when a refinement is requested while another is in flight
	ErrRefinementPending = errors.New("a refinement is already in progress")
	// ErrStaleTarget is returned when the refinement target no longer exists in the forest
	ErrStaleTarget = errors.New("refinement target no longer exists")
	// ErrStaleResult is returned when a completed call belongs to a forest or run that was superseded
	ErrStaleResult = errors.New("result belongs to a superseded generation")
	// ErrUnknownAction is returned for action types the reducer does not handle
	ErrUnknownAction = errors.New("unknown action")
)

// State is the whole mutable state of one studio session
type State struct {
	Forest              models.Forest
	SelectedID          string
	PendingRefinementID string
	ModalOpen           bool

	// Epoch changes every time the forest is replaced; in-flight refinements carry the
	// epoch they started under
	Epoch uint64
	// GenerationTicket identifies the most recently started top-level generation
	GenerationTicket  uint64
	GenerationPending bool

	// Prompt and References describe the run that produced the current forest; refinements
	// re-use them as their base context
	Prompt     string
	References []models.ReferenceImage
}

// HasSelection reports whether a node is selected
func (s State) HasSelection() bool {
	return s.SelectedID != ""
}

// RefinementPending reports whether a refinement is in flight
func (s State) RefinementPending() bool {
	return s.PendingRefinementID != ""
}
