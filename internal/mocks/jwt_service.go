package mocks

import (
	"context"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing.
type MockJWTService struct {
	// Identity and Err are the default return values.
	Identity domain.Identity
	Err      error

	ValidateTokenFn func(ctx context.Context, token string) (domain.Identity, error)
}

func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (domain.Identity, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return m.Identity, m.Err
}

var _ auth.JWTService = (*MockJWTService)(nil)
