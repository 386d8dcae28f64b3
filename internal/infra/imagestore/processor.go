package imagestore

import (
	"foodbridge/config"
	"foodbridge/internal/domain/service"
)

type processor struct {
	thumbnailSize int
}

// NewProcessor returns the image helpers as a service.ImageProcessor.
func NewProcessor(cfg *config.Config) service.ImageProcessor {
	size := DefaultThumbnailSize
	if cfg.Images != nil && cfg.Images.ThumbnailSize > 0 {
		size = cfg.Images.ThumbnailSize
	}

	return &processor{thumbnailSize: size}
}

func (p *processor) Inspect(data []byte) (int, int, string, error) {
	return Dimensions(data)
}

func (p *processor) Thumbnail(data []byte) ([]byte, error) {
	return Thumbnail(data, p.thumbnailSize)
}

func (p *processor) DecodeDataURL(dataURL string) ([]byte, string, error) {
	return ParseDataURL(dataURL)
}
