package service

import (
	"context"

	"foodbridge/internal/domain/entity"
)

// FreshnessAssessor judges whether the food in a photo is still edible.
type FreshnessAssessor interface {
	Assess(ctx context.Context, image []byte, mimeType, foodType string) (*entity.Assessment, error)
}
