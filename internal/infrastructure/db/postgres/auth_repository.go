package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ontoacademy/platform-api/internal/core/domain"
)

// AuthRepository persists users and the refresh-token ledger.
type AuthRepository struct {
	db *sql.DB
}

func NewAuthRepository(db *sql.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, email_verified, created_at, last_login_at
		FROM users WHERE email = $1
	`, email))
}

func (r *AuthRepository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, email_verified, created_at, last_login_at
		FROM users WHERE id = $1
	`, id))
}

func (r *AuthRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := *user
	created.ID = uuid.NewString()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, created.ID, created.Email, created.PasswordHash, created.EmailVerified, created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *AuthRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login_at = $2 WHERE id = $1
	`, userID, at); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (r *AuthRepository) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at < NOW()
	`, token.UserID); err != nil {
		return fmt.Errorf("sweep expired tokens: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token.Token, token.UserID, token.ExpiresAt); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *AuthRepository) FindRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := &domain.RefreshToken{}
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at, revoked_at
		FROM refresh_tokens WHERE token = $1
	`, token).Scan(&row.Token, &row.UserID, &row.ExpiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if revokedAt.Valid {
		row.RevokedAt = &revokedAt.Time
	}
	return row, nil
}

func (r *AuthRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE token = $1
	`, token); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken consumes oldToken and installs next as one serializable
// unit. Zero rows deleted means a concurrent refresh already consumed the
// token; the transaction aborts and the caller sees not-found. An insert
// failure rolls back the delete, so the presented token survives.
func (r *AuthRepository) RotateRefreshToken(ctx context.Context, oldToken string, next *domain.RefreshToken) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	return withTx(ctx, r.db, opts, func(tx DBTX) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM refresh_tokens WHERE token = $1
		`, oldToken)
		if err != nil {
			return fmt.Errorf("consume refresh token: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrRefreshTokenNotFound
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at < NOW()
		`, next.UserID); err != nil {
			return fmt.Errorf("sweep expired tokens: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO refresh_tokens (token, user_id, expires_at)
			VALUES ($1, $2, $3)
		`, next.Token, next.UserID, next.ExpiresAt); err != nil {
			return fmt.Errorf("insert rotated token: %w", err)
		}
		return nil
	})
}

func (r *AuthRepository) RevokeRefreshToken(ctx context.Context, token string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Idempotent: absent or already-revoked rows are left untouched.
	if _, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = $2
		WHERE token = $1 AND revoked_at IS NULL
	`, token, at); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *AuthRepository) RevokeUserRefreshTokens(ctx context.Context, userID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, at); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.EmailVerified, &user.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return user, nil
}
