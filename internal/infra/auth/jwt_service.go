// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"foodbridge/config"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	ttl := defaultTokenTTL
	if cfg.Auth != nil && cfg.Auth.TokenTTL > 0 {
		ttl = cfg.Auth.TokenTTL
	}

	return &jwtService{
		secret: []byte(cfg.SecretKey.Access),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

const accessTokenType = "access"

// accessClaims is the token body. A user has exactly one role.
type accessClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
	Type string `json:"type"`
}

// GenerateAccessToken signs an HS256 token carrying the user's id, name and role.
func (s *jwtService) GenerateAccessToken(user *entity.User) (string, error) {
	now := s.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name: user.Name,
		Role: user.Role.String(),
		Type: accessTokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// ValidateToken checks the signature and expiry and extracts the claims.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token")
	}

	switch {
	case claims.Subject == "":
		return nil, errors.New("user ID missing from token")
	case claims.Type != accessTokenType:
		return nil, errors.New("not an access token")
	}

	role := entity.Role(claims.Role)
	if !role.IsValid() {
		return nil, errors.Errorf("unknown role %q in token", claims.Role)
	}

	result := &service.Claims{
		UserID:    claims.Subject,
		Name:      claims.Name,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}

	return result, nil
}

// TokenTTL returns the configured lifetime of access tokens.
func (s *jwtService) TokenTTL() time.Duration {
	return s.ttl
}
