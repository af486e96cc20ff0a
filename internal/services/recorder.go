package services

import (
	"context"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
	"gorm.io/gorm"
)

// GenerationRecorder persists one GenerationLog per batch call
type GenerationRecorder interface {
	Record(ctx context.Context, entry *models.GenerationLog) error
}

// NewGenerationRecorder returns a gorm-backed recorder, or a no-op one when db is nil
func NewGenerationRecorder(db *gorm.DB) GenerationRecorder {
	if db == nil {
		return noopRecorder{}
	}
	return &gormRecorder{db: db}
}

type gormRecorder struct {
	db *gorm.DB
}

func (r *gormRecorder) Record(ctx context.Context, entry *models.GenerationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, *models.GenerationLog) error {
	return nil
}
