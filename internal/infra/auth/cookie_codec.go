package auth

import (
	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"

	"foodbridge/config"
	"foodbridge/internal/domain/service"
)

const cookieMaxAge = 7 * 24 * 60 * 60

// secureCookieCodec authenticates (and, with a block key, encrypts) cookie values.
type secureCookieCodec struct {
	codec *securecookie.SecureCookie
}

// NewCookieCodec builds the codec from the configured hash and block keys.
// The hash key falls back to the JWT access secret.
func NewCookieCodec(cfg *config.Config) (service.CookieCodec, error) {
	hashKey := cfg.SecretKey.CookieHash
	if hashKey == "" {
		hashKey = cfg.SecretKey.Access
	}
	if hashKey == "" {
		return nil, errors.New("cookie hash key must be provided")
	}

	var blockKey []byte
	if k := cfg.SecretKey.CookieBlock; k != "" {
		if len(k) != 16 && len(k) != 24 && len(k) != 32 {
			return nil, errors.Errorf("cookie block key must be 16, 24 or 32 bytes, got %d", len(k))
		}
		blockKey = []byte(k)
	}

	codec := securecookie.New([]byte(hashKey), blockKey)
	codec.MaxAge(cookieMaxAge)

	return &secureCookieCodec{codec: codec}, nil
}

func (c *secureCookieCodec) Encode(name, value string) (string, error) {
	encoded, err := c.codec.Encode(name, value)
	if err != nil {
		return "", errors.Wrapf(err, "encode cookie %s", name)
	}

	return encoded, nil
}

func (c *secureCookieCodec) Decode(name, encoded string) (string, error) {
	var value string
	if err := c.codec.Decode(name, encoded, &value); err != nil {
		return "", errors.Wrapf(err, "decode cookie %s", name)
	}

	return value, nil
}
