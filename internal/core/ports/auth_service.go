package ports

import (
	"context"
	"time"

	"github.com/ontoacademy/platform-api/internal/core/domain"
)

// TokenPair bundles a signed short-lived access token with an opaque
// long-lived refresh token.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthResponse is returned by every credential-issuing operation.
type AuthResponse struct {
	User   *domain.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	// Logout revokes the presented token when non-empty, otherwise revokes
	// every active token owned by userID. Idempotent.
	Logout(ctx context.Context, refreshToken, userID string) error
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}
