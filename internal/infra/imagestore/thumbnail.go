package imagestore

import (
	"bytes"
	"image"
	_ "image/gif" // decoders
	"image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultThumbnailSize = 200
	thumbnailQuality     = 50
)

// ErrUnsupportedImage is returned for bytes no registered decoder understands.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Dimensions reads the width and height from the image header.
func Dimensions(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", errors.Wrap(ErrUnsupportedImage, err.Error())
	}

	return cfg.Width, cfg.Height, format, nil
}

// Thumbnail scales the image to fit in a size x size box, keeping the
// aspect ratio, and encodes it as JPEG. Images already smaller are re-encoded
// without upscaling.
func Thumbnail(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedImage, err.Error())
	}

	bounds := src.Bounds()
	w, h := fit(bounds.Dx(), bounds.Dy(), size)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, errors.Wrap(err, "encode thumbnail")
	}

	return buf.Bytes(), nil
}

func fit(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return size, max(h*size/w, 1)
	}

	return max(w*size/h, 1), size
}
