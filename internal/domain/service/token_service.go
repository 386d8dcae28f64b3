package service

import (
	"time"

	"foodbridge/internal/domain/entity"
)

// Claims is the identity carried by an access token.
type Claims struct {
	UserID    string
	Name      string
	Role      entity.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Actor returns the identity the token holder acts with.
func (c *Claims) Actor() entity.Actor {
	return entity.Actor{UserID: c.UserID, Name: c.Name, Role: c.Role}
}

// TokenService defines the interface for generating and validating JWTs.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// GenerateAccessToken creates a signed access token for the user.
	GenerateAccessToken(user *entity.User) (string, error)

	// ValidateToken checks the validity of a token string.
	ValidateToken(tokenString string) (*Claims, error)

	// TokenTTL returns how long issued tokens stay valid.
	TokenTTL() time.Duration
}

// CookieCodec signs and encrypts cookie values.
type CookieCodec interface {
	Encode(name, value string) (string, error)
	Decode(name, encoded string) (string, error)
}
