package studio

import (
	"fmt"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/tree"
)

// Key is a directional key the navigation controller reacts to
type Key string

const (
	KeyLeft  Key = "left"
	KeyRight Key = "right"
)

// ParseKey maps a direction name to a Key
func ParseKey(direction string) (Key, bool) {
	switch Key(direction) {
	case KeyLeft, KeyRight:
		return Key(direction), true
	}
	return "", false
}

// Action is a state transition request handled by Reduce
type Action interface {
	action()
}

// SelectToggled selects a node, or clears the selection when the node is already selected
type SelectToggled struct{ ID string }

// KeyPressed moves the selection to the previous/next sibling with wraparound
type KeyPressed struct{ Key Key }

// ModalToggled opens or closes the full-screen preview
type ModalToggled struct{ Open bool }

// GenerationStarted marks a new top-level generation run as the latest one
type GenerationStarted struct{ Ticket uint64 }

// GenerationSucceeded replaces the forest with the roots produced by run Ticket
type GenerationSucceeded struct {
	Ticket     uint64
	Prompt     string
	References []models.ReferenceImage
	Roots      models.Forest
}

// GenerationFailed ends run Ticket without touching the forest
type GenerationFailed struct{ Ticket uint64 }

// RefinementStarted sets the pending marker on TargetID
type RefinementStarted struct{ TargetID string }

// RefinementSucceeded attaches Children under TargetID if the forest is still at Epoch
type RefinementSucceeded struct {
	TargetID string
	Epoch    uint64
	Children []models.ImageRecord
}

// RefinementFailed clears the pending marker of TargetID
type RefinementFailed struct {
	TargetID string
	Epoch    uint64
}

func (SelectToggled) action()       {}
func (KeyPressed) action()          {}
func (ModalToggled) action()        {}
func (GenerationStarted) action()   {}
func (GenerationSucceeded) action() {}
func (GenerationFailed) action()    {}
func (RefinementStarted) action()   {}
func (RefinementSucceeded) action() {}
func (RefinementFailed) action()    {}

// Reduce applies a to s and returns the next state. It never mutates s and has no side effects.
// On error the returned state is s unchanged.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case SelectToggled:
		return toggleSelection(s, a.ID), nil

	case KeyPressed:
		return navigate(s, a.Key), nil

	case ModalToggled:
		s.ModalOpen = a.Open
		return s, nil

	case GenerationStarted:
		s.GenerationTicket = a.Ticket
		s.GenerationPending = true
		return s, nil

	case GenerationSucceeded:
		if a.Ticket != s.GenerationTicket {
			return s, ErrStaleResult
		}
		s.Forest = a.Roots
		s.Prompt = a.Prompt
		s.References = a.References
		s.SelectedID = ""
		s.PendingRefinementID = ""
		s.ModalOpen = false
		s.GenerationPending = false
		s.Epoch++
		return s, nil

	case GenerationFailed:
		if a.Ticket != s.GenerationTicket {
			return s, ErrStaleResult
		}
		s.GenerationPending = false
		return s, nil

	case RefinementStarted:
		if s.RefinementPending() {
			return s, ErrRefinementPending
		}
		if _, ok := tree.FindByID(s.Forest, a.TargetID); !ok {
			return s, ErrStaleTarget
		}
		s.PendingRefinementID = a.TargetID
		return s, nil

	case RefinementSucceeded:
		if a.Epoch != s.Epoch {
			return s, ErrStaleResult
		}
		forest, ok := tree.AddChildren(s.Forest, a.TargetID, a.Children)
		if !ok {
			return s, ErrStaleTarget
		}
		s.Forest = forest
		s.SelectedID = ""
		if s.PendingRefinementID == a.TargetID {
			s.PendingRefinementID = ""
		}
		return s, nil

	case RefinementFailed:
		if a.Epoch != s.Epoch {
			return s, ErrStaleResult
		}
		if s.PendingRefinementID == a.TargetID {
			s.PendingRefinementID = ""
		}
		return s, nil
	}

	return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
}

func toggleSelection(s State, id string) State {
	if s.SelectedID == id {
		s.SelectedID = ""
		return s
	}
	if _, ok := tree.FindByID(s.Forest, id); !ok {
		return s
	}
	s.SelectedID = id
	return s
}

func navigate(s State, key Key) State {
	if !s.HasSelection() || s.ModalOpen {
		return s
	}
	siblings, ok := tree.FindSiblings(s.Forest, s.SelectedID)
	if !ok {
		return s
	}
	current := tree.IndexOf(siblings, s.SelectedID)
	n := len(siblings)

	var next int
	switch key {
	case KeyLeft:
		next = (current - 1 + n) % n
	case KeyRight:
		next = (current + 1) % n
	default:
		return s
	}
	s.SelectedID = siblings[next].ID
	return s
}
