package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegister(t *testing.T) {
	handler, _, _ := newTestServer(t)

	// Valid registration
	reqBody := bytes.NewBufferString(`{"username":"alice","name":"Alice","email":"alice@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", reqBody)
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var regResp RegisterResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &regResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if regResp.User.Username != "alice" {
		t.Errorf("expected username 'alice', got '%s'", regResp.User.Username)
	}
	if regResp.User.IsVerified {
		t.Error("new user should not be verified")
	}
	if strings.Contains(resp.Body.String(), "password") {
		t.Error("response must not leak password fields")
	}

	// Duplicate username
	reqBody = bytes.NewBufferString(`{"username":"alice","name":"Other","email":"other@example.com","password":"secret123"}`)
	req = httptest.NewRequest(http.MethodPost, "/auth/register", reqBody)
	req.Header.Set("Content-Type", "application/json")

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d: %s", resp.Code, resp.Body.String())
	}

	// Missing fields
	reqBody = bytes.NewBufferString(`{"username":"bob"}`)
	req = httptest.NewRequest(http.MethodPost, "/auth/register", reqBody)
	req.Header.Set("Content-Type", "application/json")

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.Code)
	}
}

func TestVerifyEmail(t *testing.T) {
	handler, st, authService := newTestServer(t)
	ctx := context.Background()

	user, err := authService.Register(ctx, "alice", "Alice", "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}

	// Bogus token
	reqBody := bytes.NewBufferString(`{"token":"not-a-real-token"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-email", reqBody)
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.Code)
	}

	// Real token
	body, err := json.Marshal(VerifyEmailRequest{Token: user.VerificationToken})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/auth/verify-email", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	verified, err := st.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !verified.IsVerified {
		t.Error("user should be verified")
	}

	// Token is single use
	req = httptest.NewRequest(http.MethodPost, "/auth/verify-email", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 on token reuse, got %d", resp.Code)
	}
}

func TestLogin(t *testing.T) {
	handler, st, authService := newTestServer(t)

	registerVerifiedUser(t, authService, st, "alice", "secret123")

	// Valid credentials
	reqBody := bytes.NewBufferString(`{"username":"alice","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", reqBody)
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var authResp AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &authResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if authResp.Token == "" {
		t.Error("expected a token")
	}
	if authResp.User.Username != "alice" {
		t.Errorf("expected username 'alice', got '%s'", authResp.User.Username)
	}

	// Wrong password
	reqBody = bytes.NewBufferString(`{"username":"alice","password":"wrong"}`)
	req = httptest.NewRequest(http.MethodPost, "/auth/login", reqBody)
	req.Header.Set("Content-Type", "application/json")

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.Code)
	}

	// Unknown user
	reqBody = bytes.NewBufferString(`{"username":"nobody","password":"secret123"}`)
	req = httptest.NewRequest(http.MethodPost, "/auth/login", reqBody)
	req.Header.Set("Content-Type", "application/json")

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	handler, _, _ := newTestServer(t)

	paths := []string{
		"/auth/profile/1",
		"/auth/contacts/1",
		"/chat/history/1/2",
		"/groups/user/1",
		"/admin/users",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d", path, resp.Code)
		}
	}
}
