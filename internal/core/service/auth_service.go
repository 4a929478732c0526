package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ontoacademy/platform-api/internal/api/metrics"
	"github.com/ontoacademy/platform-api/internal/core/domain"
	"github.com/ontoacademy/platform-api/internal/core/ports"
)

// AuthService orchestrates register/login/refresh/logout over the credential
// store and the refresh-token ledger.
type AuthService struct {
	repo       ports.AuthRepository
	issuer     *TokenIssuer
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, issuer *TokenIssuer, refreshTTL time.Duration, log zerolog.Logger) *AuthService {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{repo: repo, issuer: issuer, refreshTTL: refreshTTL, log: log}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*ports.AuthResponse, error) {
	email = domain.FoldEmail(email)

	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.AuthOperationsTotal.WithLabelValues("register", "ok").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return resp, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResponse, error) {
	user, err := s.repo.FindUserByEmail(ctx, domain.FoldEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same error as a password mismatch, never reveal which.
			metrics.AuthOperationsTotal.WithLabelValues("login", "rejected").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthOperationsTotal.WithLabelValues("login", "rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		// Bookkeeping only; the session is already valid.
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("last-login update failed")
	} else {
		resp.User.LastLoginAt = &now
	}

	metrics.AuthOperationsTotal.WithLabelValues("login", "ok").Inc()
	return resp, nil
}

// Refresh exchanges a valid refresh token for a new token pair, consuming the
// presented token. The ledger lookup runs outside any transaction so the
// unauthenticated fast-fail path holds no locks; only the rotation itself is
// serializable.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResponse, error) {
	row, err := s.repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	now := time.Now().UTC()
	if now.After(row.ExpiresAt) {
		if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
			s.log.Warn().Err(err).Msg("expired refresh token cleanup failed")
		}
		metrics.RefreshRotationsTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrRefreshTokenExpired
	}
	if row.RevokedAt != nil {
		// Kept in place so replayed values keep failing identically.
		metrics.RefreshRotationsTotal.WithLabelValues("revoked").Inc()
		return nil, domain.ErrRefreshTokenRevoked
	}

	user, err := s.repo.FindUserByID(ctx, row.UserID)
	if err != nil {
		return nil, err
	}

	// Generate the replacement pair before the atomic phase: token creation
	// must not depend on transaction state.
	access, expiresAt, err := s.issuer.IssueAccessToken(user, now)
	if err != nil {
		return nil, err
	}
	next, err := s.issuer.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	err = s.repo.RotateRefreshToken(ctx, refreshToken, &domain.RefreshToken{
		Token:     next,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
	})
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			// A concurrent refresh consumed the token first.
			metrics.RefreshRotationsTotal.WithLabelValues("lost_race").Inc()
		}
		return nil, err
	}

	metrics.RefreshRotationsTotal.WithLabelValues("ok").Inc()
	return &ports.AuthResponse{
		User: user,
		Tokens: ports.TokenPair{
			AccessToken:  access,
			RefreshToken: next,
			ExpiresAt:    expiresAt,
		},
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken, userID string) error {
	now := time.Now().UTC()
	if refreshToken != "" {
		return s.repo.RevokeRefreshToken(ctx, refreshToken, now)
	}
	if userID != "" {
		return s.repo.RevokeUserRefreshTokens(ctx, userID, now)
	}
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindUserByID(ctx, userID)
}

// issueSession mints a token pair and persists the refresh half.
func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*ports.AuthResponse, error) {
	now := time.Now().UTC()
	access, expiresAt, err := s.issuer.IssueAccessToken(user, now)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.repo.StoreRefreshToken(ctx, &domain.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}
	return &ports.AuthResponse{
		User: user,
		Tokens: ports.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    expiresAt,
		},
	}, nil
}
