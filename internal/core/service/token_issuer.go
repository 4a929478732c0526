package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ontoacademy/platform-api/internal/core/domain"
)

const (
	tokenTypeAccess  = "access"
	refreshTokenSize = 32
)

// TokenIssuer mints signed access tokens and opaque refresh-token values.
// Access tokens are HS256 with issuer/audience claims and a "typ" claim so a
// refresh token can never be replayed as an access token. Verification only
// accepts HS256 to rule out algorithm-confusion attacks.
type TokenIssuer struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

// AccessClaims is the validated identity extracted from a bearer token.
type AccessClaims struct {
	UserID string
	Email  string
}

func NewTokenIssuer(secret, issuer, audience string, accessTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &TokenIssuer{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
	}
}

// IssueAccessToken signs a short-lived access token for the user.
func (i *TokenIssuer) IssueAccessToken(user *domain.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iss":   i.issuer,
		"aud":   i.audience,
		"typ":   tokenTypeAccess,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken validates signature, issuer, audience, expiry, and the
// access "typ" claim.
func (i *TokenIssuer) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidCredentials
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeAccess {
		return nil, domain.ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrInvalidCredentials
	}
	email, _ := claims["email"].(string)
	return &AccessClaims{UserID: sub, Email: email}, nil
}

// NewRefreshToken returns a fresh opaque ledger value.
func (i *TokenIssuer) NewRefreshToken() (string, error) {
	b := make([]byte, refreshTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
