package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/config"
	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA
// signing, sharing the secret with the external login service.
type hmacJWTService struct {
	signingKey []byte
	timeFunc   func() time.Time // Injectable for testing
	clockSkew  time.Duration
}

// identityClaims is the claim structure the login service issues.
type identityClaims struct {
	UUID      uuid.UUID `json:"uid"`
	Role      string    `json:"role"`
	CompanyID uuid.UUID `json:"company_id"`
	Verified  bool      `json:"verified"`
	jwt.RegisteredClaims
}

// Ensure hmacJWTService implements JWTService.
var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a JWT service using HMAC-SHA signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacJWTService{
		signingKey: []byte(cfg.JWTSecret),
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute,
	}, nil
}

// ValidateToken verifies the signature and lifetime of a token and
// returns the session identity it carries.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (domain.Identity, error) {
	claims := &identityClaims{}

	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithTimeFunc(s.timeFunc),
		jwt.WithLeeway(s.clockSkew),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpiredToken
		}
		return domain.Identity{}, ErrInvalidToken
	}

	if !token.Valid || claims.UUID == uuid.Nil {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		UUID:      claims.UUID,
		Role:      domain.Role(claims.Role),
		CompanyID: claims.CompanyID,
		Verified:  claims.Verified,
	}, nil
}
