package models

import "time"

// Generation kinds recorded in GenerationLog
const (
	GenerationKindInitial    = "initial"
	GenerationKindRefinement = "refinement"
	GenerationKindProxy      = "proxy"
)

// GenerationLog tracks one batch call to the image collaborator
type GenerationLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	SessionID   string    `gorm:"index" json:"session_id"`
	RequestID   string    `gorm:"index" json:"request_id"`
	Kind        string    `gorm:"not null;index" json:"kind"` // "initial", "refinement", "proxy"
	Model       string    `gorm:"not null" json:"model"`
	TargetID    string    `json:"target_id,omitempty"`
	Requested   int       `gorm:"not null" json:"requested"`
	Succeeded   int       `gorm:"not null" json:"succeeded"`
	ReferenceN  int       `gorm:"not null" json:"reference_count"`
	PromptChars int       `json:"prompt_chars"`
	DurationMS  int       `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
}
