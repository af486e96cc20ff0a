package tui

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	tea "github.com/charmbracelet/bubbletea"
)

func generateCmd(ctx context.Context, opts Options) tea.Cmd {
	in := services.GenerateInput{
		Credential: opts.Credential,
		Prompt:     opts.Prompt,
		References: opts.References,
		Count:      opts.Count,
		Model:      opts.Model,
	}
	return func() tea.Msg {
		_, result, err := opts.Service.Generate(ctx, sessionID, in)
		return generateDoneMsg{result: result, err: err}
	}
}

func refineCmd(ctx context.Context, opts Options, targetID, instruction string) tea.Cmd {
	in := services.StudioRefineInput{
		Credential:  opts.Credential,
		TargetID:    targetID,
		Instruction: instruction,
		Model:       opts.Model,
	}
	return func() tea.Msg {
		_, result, err := opts.Service.Refine(ctx, sessionID, in)
		return refineDoneMsg{targetID: targetID, result: result, err: err}
	}
}

func saveCmd(dir, id string, img models.ImageData) tea.Cmd {
	return func() tea.Msg {
		path, err := SaveImage(dir, id, img)
		return savedMsg{path: path, err: err}
	}
}

// SaveImage writes img to dir as <id><ext>, creating dir if needed
func SaveImage(dir, id string, img models.ImageData) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, id+extensionFor(img.MimeType))
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}

// LoadReferences reads reference images from disk, rejecting files that are not images
func LoadReferences(paths []string) ([]models.ReferenceImage, error) {
	refs := make([]models.ReferenceImage, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read reference %s: %w", p, err)
		}
		mimeType := http.DetectContentType(data)
		if !strings.HasPrefix(mimeType, "image/") {
			return nil, fmt.Errorf("reference %s is not an image (detected %s)", p, mimeType)
		}
		refs = append(refs, models.ReferenceImage{Data: data, MimeType: mimeType})
	}
	return refs, nil
}
