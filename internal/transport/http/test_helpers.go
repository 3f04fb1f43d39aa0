package http

import (
	"context"
	"database/sql"
	stdhttp "net/http"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/auth"
	"github.com/gigachat/gigachat-server/internal/config"
	"github.com/gigachat/gigachat-server/internal/core"
	"github.com/gigachat/gigachat-server/internal/email"
	"github.com/gigachat/gigachat-server/internal/service/groups"
	"github.com/gigachat/gigachat-server/internal/service/history"
	"github.com/gigachat/gigachat-server/internal/store"
	"github.com/gigachat/gigachat-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	return st
}

// createTestAuthService creates an auth service for testing. Emails go
// to the log sender, so no SMTP is needed.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	nop := zerolog.Nop()
	return auth.NewService(st, jwtConfig, email.NewLogSender(&nop), "http://localhost", &nop)
}

// newTestServer builds a full server over an in-memory store. Returns
// the HTTP handler, the store and the auth service.
func newTestServer(t *testing.T) (stdhttp.Handler, store.Store, *auth.Service) {
	t.Helper()

	st := createTestStore(t)
	t.Cleanup(func() { st.Close() })

	authService := createTestAuthService(t, st, "test-secret")
	nop := zerolog.Nop()

	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		MaxMessageBytes:   1 << 20,
		JWTSecret:         "test-secret",
	}

	registry := core.NewRegistry()
	server := NewServer(cfg, Deps{
		Store:       st,
		AuthService: authService,
		History:     history.New(st),
		Groups:      groups.New(st),
		Registry:    registry,
		Coordinator: core.NewCoordinator(st, st, registry, &nop),
	}, &nop)

	return server.Handler, st, authService
}

// adminToken issues a token with the admin flag set, without requiring
// an admin row in the database.
func adminToken(t *testing.T) string {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	token, err := auth.GenerateToken(jwtConfig, 999, "admin", "Admin", "admin@example.com", true)
	if err != nil {
		t.Fatalf("failed to generate admin token: %v", err)
	}
	return token
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// registerVerifiedUser registers a user, marks them verified, and
// returns the stored user and a login token.
func registerVerifiedUser(t *testing.T, authService *auth.Service, st store.Store, username, password string) (*store.User, string) {
	t.Helper()

	ctx := context.Background()
	user, err := authService.Register(ctx, username, username+" name", username+"@example.com", password)
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	if err := st.MarkVerified(ctx, user.ID); err != nil {
		t.Fatalf("failed to verify %s: %v", username, err)
	}

	token, loggedIn, err := authService.Login(ctx, username, password)
	if err != nil {
		t.Fatalf("failed to login %s: %v", username, err)
	}
	return loggedIn, token
}
