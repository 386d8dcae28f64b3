package service

// ImageProcessor inspects uploaded photos and renders their thumbnails.
type ImageProcessor interface {
	// Inspect reads the dimensions and format from the image header.
	Inspect(data []byte) (width, height int, format string, err error)
	// Thumbnail renders a JPEG preview of the image.
	Thumbnail(data []byte) ([]byte, error)
	// DecodeDataURL returns the bytes and MIME type of a base64 data URL.
	DecodeDataURL(dataURL string) ([]byte, string, error)
}
