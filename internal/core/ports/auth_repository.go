package ports

import (
	"context"
	"time"

	"github.com/ontoacademy/platform-api/internal/core/domain"
)

// AuthRepository persists user credentials and the refresh-token ledger.
type AuthRepository interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	// StoreRefreshToken inserts a new ledger row and sweeps expired rows
	// belonging to the same user.
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error

	// RotateRefreshToken atomically consumes oldToken and inserts next under
	// serializable isolation. It returns domain.ErrRefreshTokenNotFound when
	// oldToken no longer exists (a concurrent refresh already consumed it).
	// On any failure the deletion rolls back, so the caller never loses its
	// last valid token.
	RotateRefreshToken(ctx context.Context, oldToken string, next *domain.RefreshToken) error

	// RevokeRefreshToken marks a single token revoked without deleting the
	// row, keeping replay attempts observable. Revoking an absent or
	// already-revoked token is a no-op.
	RevokeRefreshToken(ctx context.Context, token string, at time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string, at time.Time) error
}
