package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrEmailTaken = errors.New("email already registered")
var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrUserNotFound = errors.New("user not found")

var ErrRefreshTokenNotFound = errors.New("refresh token not found")
var ErrRefreshTokenExpired = errors.New("refresh token expired")
var ErrRefreshTokenRevoked = errors.New("refresh token revoked")

// User models a registered account. The password hash never leaves the server.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// FoldEmail normalizes an email address for case-insensitive lookups.
func FoldEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RefreshToken is one row of the refresh-token ledger. The opaque token value
// is the primary lookup key. A token is trusted only while it is neither
// expired nor revoked; rotation deletes the row, logout revokes it in place.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the token can still be exchanged at the given instant.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
