package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ontoacademy/platform-api/internal/core/domain"
)

// stubAuthRepo is an in-memory AuthRepository for service tests.
type stubAuthRepo struct {
	users  map[string]*domain.User
	tokens map[string]*domain.RefreshToken
	seq    int

	// rotateInsertErr fails RotateRefreshToken after the lookup, simulating a
	// storage failure inside the atomic phase. The old token must survive.
	rotateInsertErr error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{
		users:  make(map[string]*domain.User),
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (r *stubAuthRepo) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *stubAuthRepo) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	r.seq++
	created := *user
	created.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[created.ID] = &created
	out := created
	return &out, nil
}

func (r *stubAuthRepo) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *stubAuthRepo) StoreRefreshToken(_ context.Context, token *domain.RefreshToken) error {
	copied := *token
	r.tokens[copied.Token] = &copied
	return nil
}

func (r *stubAuthRepo) FindRefreshToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	row, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrRefreshTokenNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *stubAuthRepo) DeleteRefreshToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *stubAuthRepo) RotateRefreshToken(_ context.Context, oldToken string, next *domain.RefreshToken) error {
	if _, ok := r.tokens[oldToken]; !ok {
		return domain.ErrRefreshTokenNotFound
	}
	if r.rotateInsertErr != nil {
		// Atomic phase failed: nothing is consumed.
		return r.rotateInsertErr
	}
	delete(r.tokens, oldToken)
	copied := *next
	r.tokens[copied.Token] = &copied
	return nil
}

func (r *stubAuthRepo) RevokeRefreshToken(_ context.Context, token string, at time.Time) error {
	row, ok := r.tokens[token]
	if !ok || row.RevokedAt != nil {
		return nil
	}
	row.RevokedAt = &at
	return nil
}

func (r *stubAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string, at time.Time) error {
	for _, row := range r.tokens {
		if row.UserID == userID && row.RevokedAt == nil {
			row.RevokedAt = &at
		}
	}
	return nil
}

func newTestAuthService(repo *stubAuthRepo) *AuthService {
	issuer := NewTokenIssuer("test-secret", "ontoacademy", "ontoacademy-api", 15*time.Minute)
	return NewAuthService(repo, issuer, 7*24*time.Hour, zerolog.Nop())
}

func TestAuthService_Register(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Register(context.Background(), "Alice@Example.COM", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "alice@example.com" {
		t.Fatalf("email not folded: %q", resp.User.Email)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", resp.Tokens)
	}
	if _, ok := repo.tokens[resp.Tokens.RefreshToken]; !ok {
		t.Fatalf("refresh token not persisted")
	}
	if repo.users[resp.User.ID].PasswordHash == "hunter2hunter2" {
		t.Fatalf("password stored in the clear")
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), "alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Case only differs; registration must still collide.
	_, err := svc.Register(context.Background(), "ALICE@example.com", "another-pass")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), "alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.LastLoginAt == nil {
		t.Fatalf("last login not recorded")
	}

	if _, err := svc.Login(context.Background(), "alice@example.com", "wrong-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	// Unknown account fails with the same error as a bad password.
	if _, err := svc.Login(context.Background(), "nobody@example.com", "hunter2hunter2"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	old := reg.Tokens.RefreshToken

	resp, err := svc.Refresh(context.Background(), old)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.Tokens.RefreshToken == old {
		t.Fatalf("refresh token was not rotated")
	}
	if _, ok := repo.tokens[old]; ok {
		t.Fatalf("consumed token still in ledger")
	}

	// The old value is spent; only the new one refreshes.
	if _, err := svc.Refresh(context.Background(), old); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Fatalf("replayed token: got %v, want ErrRefreshTokenNotFound", err)
	}
	if _, err := svc.Refresh(context.Background(), resp.Tokens.RefreshToken); err != nil {
		t.Fatalf("rotated token rejected: %v", err)
	}
}

func TestAuthService_RefreshFailureKeepsOldToken(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	old := reg.Tokens.RefreshToken

	repo.rotateInsertErr = errors.New("storage down")
	if _, err := svc.Refresh(context.Background(), old); err == nil {
		t.Fatalf("refresh succeeded despite storage failure")
	}
	if _, ok := repo.tokens[old]; !ok {
		t.Fatalf("failed rotation consumed the old token")
	}

	// Once storage recovers the same token still works.
	repo.rotateInsertErr = nil
	if _, err := svc.Refresh(context.Background(), old); err != nil {
		t.Fatalf("refresh after recovery: %v", err)
	}
}

func TestAuthService_RefreshExpiredToken(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	old := reg.Tokens.RefreshToken
	repo.tokens[old].ExpiresAt = time.Now().Add(-time.Hour)

	if _, err := svc.Refresh(context.Background(), old); !errors.Is(err, domain.ErrRefreshTokenExpired) {
		t.Fatalf("got %v, want ErrRefreshTokenExpired", err)
	}
	if _, ok := repo.tokens[old]; ok {
		t.Fatalf("expired token not cleaned up")
	}
}

func TestAuthService_RefreshRevokedToken(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	old := reg.Tokens.RefreshToken
	revokedAt := time.Now().UTC()
	repo.tokens[old].RevokedAt = &revokedAt

	if _, err := svc.Refresh(context.Background(), old); !errors.Is(err, domain.ErrRefreshTokenRevoked) {
		t.Fatalf("got %v, want ErrRefreshTokenRevoked", err)
	}
	// Revoked rows stay in the ledger so replays keep failing the same way.
	if _, ok := repo.tokens[old]; !ok {
		t.Fatalf("revoked token was deleted")
	}
}

func TestAuthService_Logout(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token := reg.Tokens.RefreshToken

	if err := svc.Logout(context.Background(), token, ""); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if repo.tokens[token].RevokedAt == nil {
		t.Fatalf("token not revoked")
	}
	if _, err := svc.Refresh(context.Background(), token); !errors.Is(err, domain.ErrRefreshTokenRevoked) {
		t.Fatalf("got %v, want ErrRefreshTokenRevoked", err)
	}

	// Logging out again, or with nothing to identify a session, is a no-op.
	if err := svc.Logout(context.Background(), token, ""); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}
	if err := svc.Logout(context.Background(), "", ""); err != nil {
		t.Fatalf("anonymous logout: %v", err)
	}
}

func TestAuthService_LogoutAllSessions(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), "", reg.User.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	for _, token := range []string{reg.Tokens.RefreshToken, second.Tokens.RefreshToken} {
		if repo.tokens[token].RevokedAt == nil {
			t.Fatalf("session %q survived user-wide logout", token)
		}
	}
}
