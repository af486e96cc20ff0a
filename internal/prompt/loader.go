package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/refinery-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetBaseStylePrompt loads the style section shared by every generation
func (l *Loader) GetBaseStylePrompt() (string, error) {
	return strings.TrimSpace(string(embedded.BaseStylePromptTxt)), nil
}

// GetRefinementGuidance loads the instructions explaining the refinement reference layout
func (l *Loader) GetRefinementGuidance() (string, error) {
	return strings.TrimSpace(string(embedded.RefinementGuidanceTxt)), nil
}
