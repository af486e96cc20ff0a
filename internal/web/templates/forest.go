// Package templates renders the studio page and the recursive forest fragment as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/a-h/templ"
)

// Callbacks are the endpoints every level of the forest posts to. The same set is handed to
// each depth, so a nested node behaves exactly like a root.
type Callbacks struct {
	Select   string
	Refine   string
	Navigate string
	Modal    string
	Fragment string
}

// DefaultCallbacks are the studio API endpoints
var DefaultCallbacks = Callbacks{
	Select:   "/api/studio/select",
	Refine:   "/api/studio/refine",
	Navigate: "/api/studio/navigate",
	Modal:    "/api/studio/modal",
	Fragment: "/htmx/forest",
}

// Forest renders the whole forest plus the preview modal
func Forest(view studio.View, cb Callbacks) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<div id="forest" data-selected="%s" data-pending="%s">`, esc(view.SelectedID), esc(view.PendingRefinementID))
		if len(view.Forest) == 0 {
			hw.print(`<p class="empty">No images yet. Upload reference images and describe what to generate.</p>`)
		} else if err := Level(view.Forest, 0, view, cb).Render(ctx, w); err != nil {
			return err
		}
		hw.print(`</div>`)
		if hw.err != nil {
			return hw.err
		}
		return Modal(view, cb).Render(ctx, w)
	})
}

// Level renders one row of siblings at depth and recurses into each sibling's children
func Level(nodes []studio.NodeView, depth int, view studio.View, cb Callbacks) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<div class="level depth-%d">`, depth)
		for _, n := range nodes {
			if hw.err != nil {
				return hw.err
			}
			if err := Node(n, depth, view, cb).Render(ctx, w); err != nil {
				return err
			}
		}
		hw.print(`</div>`)
		return hw.err
	})
}

// Node renders a single image card with its select and refine controls
func Node(n studio.NodeView, depth int, view studio.View, cb Callbacks) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		selected := view.SelectedID == n.ID
		pending := view.PendingRefinementID == n.ID
		// one refinement per session; every refine control waits for it
		busy := view.PendingRefinementID != ""

		classes := []string{"node"}
		if selected {
			classes = append(classes, "selected")
		}
		if pending {
			classes = append(classes, "pending")
		}

		hw.printf(`<div class="%s" id="node-%s" data-depth="%d">`, strings.Join(classes, " "), esc(n.ID), depth)
		hw.printf(`<button type="button" class="thumb" data-action="select" data-url="%s" data-id="%s" aria-pressed="%t">`,
			esc(cb.Select), esc(n.ID), selected)
		hw.printf(`<img src="%s" alt="generated image" loading="lazy">`, esc(n.ImageURL))
		hw.print(`</button>`)

		if selected || pending {
			hw.printf(`<form class="refine" data-action="refine" data-url="%s" data-id="%s">`, esc(cb.Refine), esc(n.ID))
			hw.print(`<input type="text" name="instruction" placeholder="Describe the change" autocomplete="off">`)
			switch {
			case pending:
				hw.print(`<button type="submit" disabled>Refining…</button>`)
			case busy:
				hw.print(`<button type="submit" disabled>Refine</button>`)
			default:
				hw.print(`<button type="submit">Refine</button>`)
			}
			hw.print(`</form>`)
		}

		if len(n.Children) > 0 {
			if hw.err != nil {
				return hw.err
			}
			if err := Level(n.Children, depth+1, view, cb).Render(ctx, w); err != nil {
				return err
			}
		}
		hw.print(`</div>`)
		return hw.err
	})
}

// Modal renders the full-size preview of the selected image when open
func Modal(view studio.View, cb Callbacks) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !view.ModalOpen || view.Preview == nil {
			return nil
		}
		hw := &htmlWriter{w: w}
		hw.printf(`<div class="modal" data-action="modal" data-url="%s" data-open="false">`, esc(cb.Modal))
		hw.printf(`<img src="%s" alt="preview">`, esc(view.Preview.ImageURL))
		hw.print(`</div>`)
		return hw.err
	})
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// htmlWriter keeps the first write error so callers check once
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) print(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) printf(format string, args ...interface{}) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}
