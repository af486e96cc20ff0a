package studio

import (
	"time"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/tree"
)

// NodeView is an ImageRecord without its payload; the image is fetched separately by URL
type NodeView struct {
	ID        string     `json:"id"`
	MimeType  string     `json:"mimeType"`
	ImageURL  string     `json:"imageUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	Children  []NodeView `json:"children"`
}

// View is the client-facing rendering of a State
type View struct {
	Forest              []NodeView `json:"forest"`
	SelectedID          string     `json:"selectedId"`
	PendingRefinementID string     `json:"pendingRefinementId"`
	ModalOpen           bool       `json:"modalOpen"`
	// Preview is the selected node while the modal is open, without children
	Preview             *NodeView  `json:"preview,omitempty"`
	GenerationPending   bool       `json:"generationPending"`
	Prompt              string     `json:"prompt"`
	ReferenceCount      int        `json:"referenceCount"`
	Epoch               uint64     `json:"epoch"`
}

// NewView renders s, resolving each node's image location with imageURL
func NewView(s State, imageURL func(id string) string) View {
	v := View{
		Forest:              nodeViews(s.Forest, imageURL),
		SelectedID:          s.SelectedID,
		PendingRefinementID: s.PendingRefinementID,
		ModalOpen:           s.ModalOpen,
		GenerationPending:   s.GenerationPending,
		Prompt:              s.Prompt,
		ReferenceCount:      len(s.References),
		Epoch:               s.Epoch,
	}
	if s.ModalOpen && s.SelectedID != "" {
		if node, ok := tree.FindByID(s.Forest, s.SelectedID); ok {
			v.Preview = &NodeView{
				ID:        node.ID,
				MimeType:  node.Image.MimeType,
				ImageURL:  imageURL(node.ID),
				CreatedAt: node.CreatedAt,
			}
		}
	}
	return v
}

func nodeViews(records []models.ImageRecord, imageURL func(id string) string) []NodeView {
	out := make([]NodeView, len(records))
	for i, r := range records {
		out[i] = NodeView{
			ID:        r.ID,
			MimeType:  r.Image.MimeType,
			ImageURL:  imageURL(r.ID),
			CreatedAt: r.CreatedAt,
			Children:  nodeViews(r.Children, imageURL),
		}
	}
	return out
}
