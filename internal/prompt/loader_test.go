package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetBaseStylePrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetBaseStylePrompt()

	if err != nil {
		t.Fatalf("GetBaseStylePrompt() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetBaseStylePrompt() returned empty string")
	}

	if !strings.Contains(content, "reference images") {
		t.Error("GetBaseStylePrompt() does not contain expected content")
	}

	if content != strings.TrimSpace(content) {
		t.Error("GetBaseStylePrompt() was not trimmed")
	}
}

func TestGetRefinementGuidance(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetRefinementGuidance()

	if err != nil {
		t.Fatalf("GetRefinementGuidance() returned error: %v", err)
	}

	if !strings.Contains(content, "LAST reference image") {
		t.Error("GetRefinementGuidance() does not explain the reference layout")
	}
}
