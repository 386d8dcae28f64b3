package usecase

import (
	"context"

	"foodbridge/internal/domain/entity"
)

// ImageUpload is a photo with what it belongs to.
type ImageUpload struct {
	Photo
	Type         entity.ImageType
	AssociatedID string
}

// ImageMetadataUpdate carries the editable metadata fields.
type ImageMetadataUpdate struct {
	OriginalFilename *string
}

// ImageUsecase stores photos, their thumbnails and freshness assessments.
type ImageUsecase interface {
	Upload(ctx context.Context, actor entity.Actor, upload *ImageUpload) (*entity.ImageRecord, error)

	// UploadDataURL decodes a data:image/...;base64 URL and uploads it.
	UploadDataURL(ctx context.Context, actor entity.Actor, dataURL string, imageType entity.ImageType, associatedID string) (*entity.ImageRecord, error)

	GetImage(ctx context.Context, imageID string) (*entity.ImageRecord, error)

	// Content returns the image bytes, or the thumbnail's when thumbnail is set.
	Content(ctx context.Context, imageID string, thumbnail bool) ([]byte, string, error)

	ListByAssociation(ctx context.Context, associatedID string) ([]*entity.ImageRecord, error)

	ListByType(ctx context.Context, imageType entity.ImageType) ([]*entity.ImageRecord, error)

	UpdateMetadata(ctx context.Context, actor entity.Actor, imageID string, update *ImageMetadataUpdate) (*entity.ImageRecord, error)

	// Assess runs the freshness assessors on a stored image and records the result.
	Assess(ctx context.Context, imageID, foodType string) (*entity.ImageRecord, *entity.Assessment, error)

	DeleteImage(ctx context.Context, actor entity.Actor, imageID string) error
}
