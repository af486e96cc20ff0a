package tui

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/Conceptual-Machines/refinery-api/internal/tree"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	branchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(1, 2)
)

const helpText = "←/→ siblings • ↑/↓ parent/child • enter select • p preview • r refine • g generate • s save • q quit"

func (m Model) View() string {
	s := m.state()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Refinery"))
	if s.Prompt != "" {
		b.WriteString(helpStyle.Render("  " + truncate(s.Prompt, 60)))
	}
	b.WriteString("\n\n")

	if s.ModalOpen {
		if node, ok := tree.FindByID(s.Forest, s.SelectedID); ok {
			b.WriteString(renderPreview(*node, s))
			b.WriteString("\n\n")
		}
	}

	if len(s.Forest) == 0 {
		b.WriteString(helpStyle.Render("No images yet."))
		b.WriteString("\n")
	} else {
		b.WriteString(renderForest(s, m.spinner.View()))
	}
	b.WriteString("\n")

	switch m.mode {
	case modePrompt:
		b.WriteString("Prompt: " + m.input.View() + "\n")
	case modeInstruction:
		b.WriteString("Refine " + s.SelectedID + ": " + m.input.View() + "\n")
	}

	if m.busy() {
		b.WriteString(m.spinner.View() + " ")
	}
	if m.statusErr {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpText))
	return b.String()
}

// renderForest draws every level with the same node renderer, indenting children under
// their parent
func renderForest(s studio.State, spin string) string {
	var b strings.Builder
	renderLevel(&b, s.Forest, "", s, spin)
	return b.String()
}

func renderLevel(b *strings.Builder, nodes []models.ImageRecord, prefix string, s studio.State, spin string) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		connector, childPrefix := "├─ ", "│  "
		if last {
			connector, childPrefix = "└─ ", "   "
		}

		b.WriteString(branchStyle.Render(prefix + connector))
		b.WriteString(renderNode(n, s, spin))
		b.WriteString("\n")

		renderLevel(b, n.Children, prefix+childPrefix, s, spin)
	}
}

func renderNode(n models.ImageRecord, s studio.State, spin string) string {
	label := fmt.Sprintf("%s  %s  %s", shortID(n.ID), n.Image.MimeType, humanSize(len(n.Image.Data)))
	if len(n.Children) > 0 {
		label += fmt.Sprintf("  (%d refined)", len(n.Children))
	}
	if n.ID == s.SelectedID {
		label = selectedStyle.Render(label)
	}
	if n.ID == s.PendingRefinementID {
		label += " " + pendingStyle.Render(spin+" refining")
	}
	return label
}

func renderPreview(n models.ImageRecord, s studio.State) string {
	depth, _ := tree.Depth(s.Forest, n.ID)
	lines := []string{
		titleStyle.Render("Preview"),
		"id:       " + n.ID,
		"type:     " + n.Image.MimeType,
		"size:     " + humanSize(len(n.Image.Data)),
		"created:  " + n.CreatedAt.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("depth:    %d", depth),
		helpStyle.Render("s to save • esc to close"),
	}
	return modalStyle.Render(strings.Join(lines, "\n"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
