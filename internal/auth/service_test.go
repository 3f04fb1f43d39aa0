package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/email"
	"github.com/gigachat/gigachat-server/internal/store"
	"github.com/gigachat/gigachat-server/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) (*Service, store.UserStore) {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	logger := zerolog.Nop()
	mailer := email.NewLogSender(&logger)

	return NewService(st, jwtConfig, mailer, "http://localhost:5173", &logger), st
}

func TestRegister_RejectsMissingFields(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "a@example.com", "password123"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestRegister_RejectsInvalidUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ab", "Alice", "a@example.com", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}

	// Should be validated after trimming whitespace.
	if _, err := svc.Register(ctx, " ab ", "Alice", "a@example.com", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestRegister_RejectsInvalidPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "Alice", "a@example.com", "12345"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegister_CreatesUnverifiedUserWithToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "Alice", "a@example.com", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if user.IsVerified {
		t.Fatal("new user must not be verified yet")
	}
	if user.VerificationToken == "" {
		t.Fatal("expected a verification token")
	}
	if user.PasswordHash == "password123" {
		t.Fatal("password must be stored hashed")
	}

	// Duplicate username.
	if _, err := svc.Register(ctx, "alice", "Other", "b@example.com", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}
	// Duplicate email.
	if _, err := svc.Register(ctx, "alice2", "Other", "a@example.com", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "Alice", "a@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.VerifyEmail(ctx, "bogus-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	if err := svc.VerifyEmail(ctx, user.VerificationToken); err != nil {
		t.Fatalf("verify: %v", err)
	}

	verified, err := st.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !verified.IsVerified {
		t.Fatal("user should be verified")
	}
	if verified.VerificationToken != "" {
		t.Fatal("verification token should be cleared")
	}

	// A spent token cannot be reused.
	if err := svc.VerifyEmail(ctx, user.VerificationToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "Alice", "a@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, user, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user %q", user.Username)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "alice" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
