// Package tui is a terminal front end for the studio: it drives a StudioService in-process
// and renders the refinement forest as an indented tree.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/Conceptual-Machines/refinery-api/internal/tree"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const sessionID = "tui"

type mode int

const (
	modeBrowse mode = iota
	modePrompt
	modeInstruction
)

// Options configure a terminal session
type Options struct {
	Service    *services.StudioService
	Credential string
	Model      string
	Prompt     string
	References []models.ReferenceImage
	Count      int
	OutDir     string
}

// Model is the bubbletea model of the terminal studio
type Model struct {
	opts Options
	ctx  context.Context

	mode    mode
	input   textinput.Model
	spinner spinner.Model

	generating bool
	refining   bool
	status     string
	statusErr  bool

	width  int
	height int
}

type generateDoneMsg struct {
	result *models.BatchResult
	err    error
}

type refineDoneMsg struct {
	targetID string
	result   *models.BatchResult
	err      error
}

type savedMsg struct {
	path string
	err  error
}

func New(ctx context.Context, opts Options) Model {
	if opts.Count == 0 {
		opts.Count = services.MinInitialCount
	}

	input := textinput.New()
	input.CharLimit = 2000
	input.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pendingStyle

	m := Model{
		opts:    opts,
		ctx:     ctx,
		input:   input,
		spinner: sp,
	}
	if strings.TrimSpace(opts.Prompt) != "" {
		m.generating = true
		m.setStatus(fmt.Sprintf("Generating %d images…", opts.Count))
	} else {
		m.setStatus("Press g to describe the image to generate")
	}
	return m
}

// Init starts a generation right away when a prompt was given on the command line
func (m Model) Init() tea.Cmd {
	if !m.generating {
		return nil
	}
	return tea.Batch(generateCmd(m.ctx, m.opts), m.spinner.Tick)
}

func (m Model) state() studio.State {
	return m.opts.Service.State(sessionID)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case generateDoneMsg:
		m.generating = false
		if msg.err != nil {
			m.setError("generation failed", msg.err)
			return m, nil
		}
		m.setStatus(batchSummary("Generated", msg.result))
		return m, nil

	case refineDoneMsg:
		m.refining = false
		if msg.err != nil {
			m.setError("refinement failed", msg.err)
			return m, nil
		}
		m.setStatus(batchSummary("Refined", msg.result))
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.setError("save failed", msg.err)
			return m, nil
		}
		m.setStatus("Saved " + msg.path)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.state()

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc":
		if s.ModalOpen {
			m.dispatch(m.opts.Service.SetModal(sessionID, false))
		}

	case "left", "h":
		m.dispatch(m.opts.Service.Navigate(sessionID, studio.KeyLeft))
	case "right", "l":
		m.dispatch(m.opts.Service.Navigate(sessionID, studio.KeyRight))

	case "down", "j":
		// Into the first child, or onto the first root when nothing is selected
		if !s.HasSelection() {
			if len(s.Forest) > 0 {
				m.dispatch(m.opts.Service.Select(sessionID, s.Forest[0].ID))
			}
			break
		}
		if node, ok := tree.FindByID(s.Forest, s.SelectedID); ok && len(node.Children) > 0 {
			m.dispatch(m.opts.Service.Select(sessionID, node.Children[0].ID))
		}

	case "up", "k":
		if path, ok := tree.PathTo(s.Forest, s.SelectedID); ok && len(path) > 1 {
			m.dispatch(m.opts.Service.Select(sessionID, path[len(path)-2]))
		}

	case "enter", " ":
		switch {
		case s.HasSelection():
			m.dispatch(m.opts.Service.Select(sessionID, s.SelectedID))
		case len(s.Forest) > 0:
			m.dispatch(m.opts.Service.Select(sessionID, s.Forest[0].ID))
		}

	case "p":
		if s.HasSelection() {
			m.dispatch(m.opts.Service.SetModal(sessionID, !s.ModalOpen))
		}

	case "g":
		if m.generating {
			break
		}
		m.mode = modePrompt
		m.input.Placeholder = "Describe the image"
		m.input.SetValue(m.opts.Prompt)
		cmd := m.input.Focus()
		return m, cmd

	case "r":
		if !s.HasSelection() {
			m.setStatus("Select an image to refine")
			break
		}
		if s.RefinementPending() {
			m.setStatus("A refinement is already running")
			break
		}
		m.mode = modeInstruction
		m.input.Placeholder = "Describe the change"
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd

	case "s":
		if node, ok := tree.FindByID(s.Forest, s.SelectedID); ok {
			return m, saveCmd(m.opts.OutDir, node.ID, node.Image)
		}
		m.setStatus("Select an image to save")
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		submitted := m.mode
		m.mode = modeBrowse
		m.input.Blur()

		if submitted == modePrompt {
			m.opts.Prompt = value
			cmd := m.startGeneration()
			return m, cmd
		}
		return m.startRefinement(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startGeneration() tea.Cmd {
	m.generating = true
	m.setStatus(fmt.Sprintf("Generating %d images…", m.opts.Count))
	return tea.Batch(generateCmd(m.ctx, m.opts), m.spinner.Tick)
}

func (m Model) startRefinement(instruction string) (tea.Model, tea.Cmd) {
	targetID := m.state().SelectedID
	m.refining = true
	m.setStatus("Refining…")
	return m, tea.Batch(refineCmd(m.ctx, m.opts, targetID, instruction), m.spinner.Tick)
}

func (m Model) busy() bool {
	return m.generating || m.refining
}

// dispatch surfaces reducer errors; the state itself is re-read on every render
func (m *Model) dispatch(_ studio.State, err error) {
	if err != nil {
		m.setError("action rejected", err)
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(prefix string, err error) {
	switch {
	case errors.Is(err, services.ErrMissingCredential):
		m.status = prefix + ": no API key (set GEMINI_API_KEY or pass --api-key)"
	default:
		m.status = prefix + ": " + err.Error()
	}
	m.statusErr = true
}

func batchSummary(verb string, result *models.BatchResult) string {
	if result == nil {
		return verb
	}
	ok := len(result.Succeeded())
	s := fmt.Sprintf("%s %d of %d images", verb, ok, len(result.Images))
	if failed := len(result.Errors); failed > 0 {
		s += fmt.Sprintf(" (%d failed: %s)", failed, result.Errors[0].Message)
	}
	return s
}
