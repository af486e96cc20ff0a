package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptBuilder(t *testing.T) {
	builder := NewPromptBuilder()
	if builder == nil {
		t.Fatal("NewPromptBuilder() returned nil")
		return
	}
	if builder.Style() == "" {
		t.Fatal("NewPromptBuilder() created builder with empty style")
	}
}

func TestNewPromptBuilderWithStyle(t *testing.T) {
	custom := NewPromptBuilderWithStyle("  flat vector art  ")
	if custom.Style() != "flat vector art" {
		t.Errorf("custom style not applied, got %q", custom.Style())
	}

	fallback := NewPromptBuilderWithStyle("   ")
	if fallback.Style() != NewPromptBuilder().Style() {
		t.Error("blank style should fall back to the embedded style")
	}
}

func TestBuildGenerationPrompt(t *testing.T) {
	builder := NewPromptBuilderWithStyle("watercolor")
	prompt := builder.BuildGenerationPrompt("a fox in the snow")

	want := "STYLE:\nwatercolor\n\nCONTENT:\na fox in the snow"
	if prompt != want {
		t.Errorf("BuildGenerationPrompt() = %q, want %q", prompt, want)
	}
	if strings.Contains(prompt, SectionRefinement) {
		t.Error("initial generation prompt must not carry a refinement section")
	}
}

func TestBuildRefinementPromptSectionOrder(t *testing.T) {
	builder := NewPromptBuilderWithStyle("watercolor")
	prompt := builder.BuildRefinementPrompt("a fox in the snow", "  brighter colors ")

	style := strings.Index(prompt, SectionStyle)
	content := strings.Index(prompt, SectionContent)
	refinement := strings.Index(prompt, SectionRefinement)

	if style != 0 {
		t.Errorf("style section should open the prompt, found at %d", style)
	}
	if !(style < content && content < refinement) {
		t.Errorf("sections out of order: style=%d content=%d refinement=%d", style, content, refinement)
	}
	if !strings.Contains(prompt, SectionRefinement+"\nbrighter colors") {
		t.Error("refinement instruction should be trimmed and follow its label")
	}
	if !strings.Contains(prompt, "a fox in the snow") {
		t.Error("original content description was lost")
	}
}

func TestWithVariation(t *testing.T) {
	tests := []struct {
		slot int
		want string
	}{
		{0, "p (Variation 1)"},
		{2, "p (Variation 3)"},
		{9, "p (Variation 10)"},
	}
	for _, tt := range tests {
		if got := WithVariation("p", tt.slot); got != tt.want {
			t.Errorf("WithVariation(p, %d) = %q, want %q", tt.slot, got, tt.want)
		}
	}
}
