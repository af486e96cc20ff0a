package embedded

import (
	_ "embed"
)

// Embed prompt data files
//
//go:embed data/prompts/base_style_prompt.txt
var BaseStylePromptTxt []byte

//go:embed data/prompts/refinement_guidance.txt
var RefinementGuidanceTxt []byte
