// Package auth validates the bearer tokens issued by the external login
// service. Token issuance and the login flow live with that service;
// this package only reads session identities out of tokens.
package auth

import (
	"context"
	"errors"

	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// Common authentication errors.
var (
	// ErrInvalidToken indicates the token is malformed or its signature
	// does not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token is well-formed but expired.
	ErrExpiredToken = errors.New("token expired")
)

// JWTService validates tokens and extracts the session identity.
type JWTService interface {
	// ValidateToken verifies a token and returns the identity it carries.
	ValidateToken(ctx context.Context, token string) (domain.Identity, error)
}
