package imagestore

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidDataURL is returned when a data URL cannot be decoded.
var ErrInvalidDataURL = errors.New("invalid data URL")

// ParseDataURL decodes "data:image/jpeg;base64,...". Only base64 payloads
// are accepted.
func ParseDataURL(s string) (data []byte, mimeType string, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}

	mimeType, params, _ := strings.Cut(header, ";")
	if !strings.Contains(params, "base64") {
		return nil, "", errors.Wrap(ErrInvalidDataURL, "payload is not base64")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.Wrap(ErrInvalidDataURL, err.Error())
	}

	return data, mimeType, nil
}
