package prompt

import (
	"fmt"
	"strings"
)

// Section labels, in the order they appear in a composed prompt
const (
	SectionStyle      = "STYLE:"
	SectionContent    = "CONTENT:"
	SectionRefinement = "REFINEMENT INSTRUCTIONS:"
)

const sectionSeparator = "\n\n"

// Builder composes generation prompts from the base style, the user's content description
// and optional refinement instructions
type Builder struct {
	style    string
	guidance string
}

// NewPromptBuilder creates a builder using the embedded base style
func NewPromptBuilder() *Builder {
	loader := NewPromptLoader()
	style, _ := loader.GetBaseStylePrompt()
	guidance, _ := loader.GetRefinementGuidance()
	return &Builder{style: style, guidance: guidance}
}

// NewPromptBuilderWithStyle creates a builder with a custom base style; an empty style
// falls back to the embedded one
func NewPromptBuilderWithStyle(style string) *Builder {
	b := NewPromptBuilder()
	if s := strings.TrimSpace(style); s != "" {
		b.style = s
	}
	return b
}

// Style returns the base style section text
func (b *Builder) Style() string {
	return b.style
}

// BuildGenerationPrompt composes the prompt of an initial generation: style, then content
func (b *Builder) BuildGenerationPrompt(content string) string {
	return strings.Join([]string{
		section(SectionStyle, b.style),
		section(SectionContent, content),
	}, sectionSeparator)
}

// BuildRefinementPrompt composes style, then the original content, then the refinement
// instructions, so later instructions can override earlier stylistic guidance
func (b *Builder) BuildRefinementPrompt(content, instruction string) string {
	refinement := strings.TrimSpace(instruction)
	if b.guidance != "" {
		refinement += sectionSeparator + b.guidance
	}
	return strings.Join([]string{
		section(SectionStyle, b.style),
		section(SectionContent, content),
		section(SectionRefinement, refinement),
	}, sectionSeparator)
}

// WithVariation appends the per-slot diversity suffix; slot is zero-based, the suffix one-based
func WithVariation(prompt string, slot int) string {
	return fmt.Sprintf("%s (Variation %d)", prompt, slot+1)
}

func section(label, body string) string {
	return label + "\n" + strings.TrimSpace(body)
}
