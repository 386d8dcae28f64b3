package repository

import (
	"context"

	"foodbridge/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrImageNotFound is returned when an image record is not found.
var ErrImageNotFound = errors.New("image not found")

// ImageRepository stores image records; the bytes live in blob storage.
type ImageRepository interface {
	GetAll(ctx context.Context) ([]*entity.ImageRecord, error)
	GetByID(ctx context.Context, id string) (*entity.ImageRecord, error)
	Add(ctx context.Context, image *entity.ImageRecord) error
	Update(ctx context.Context, image *entity.ImageRecord) error
	Delete(ctx context.Context, id string) error
	GetByAssociatedID(ctx context.Context, associatedID string) ([]*entity.ImageRecord, error)
	GetByType(ctx context.Context, imageType entity.ImageType) ([]*entity.ImageRecord, error)
}
