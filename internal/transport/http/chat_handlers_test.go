package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gigachat/gigachat-server/internal/proto"
	"github.com/gigachat/gigachat-server/internal/store"
)

func seedDirectMessage(t *testing.T, st store.Store, sender, recipient int64, content string, at time.Time) {
	t.Helper()
	msg := &store.Message{
		SenderID:    sender,
		Content:     content,
		RecipientID: &recipient,
		CreatedAt:   at,
	}
	if err := st.CreateMessage(context.Background(), msg); err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
}

func getHistory(t *testing.T, handler http.Handler, path, token string) []proto.ReceivedMessage {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("%s: expected status 200, got %d: %s", path, resp.Code, resp.Body.String())
	}

	var msgs []proto.ReceivedMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("failed to unmarshal history: %v", err)
	}
	return msgs
}

func TestDirectHistory(t *testing.T) {
	handler, st, authService := newTestServer(t)

	alice, token := registerVerifiedUser(t, authService, st, "alice", "secret123")
	bob, _ := registerVerifiedUser(t, authService, st, "bob", "secret123")
	carol, _ := registerVerifiedUser(t, authService, st, "carol", "secret123")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedDirectMessage(t, st, alice.ID, bob.ID, "hi", base)
	seedDirectMessage(t, st, bob.ID, alice.ID, "yo", base.Add(time.Second))
	seedDirectMessage(t, st, alice.ID, bob.ID, "how are you", base.Add(2*time.Second))
	// Unrelated conversation must not leak in.
	seedDirectMessage(t, st, alice.ID, carol.ID, "secret", base)

	path := "/chat/history/" + itoa(alice.ID) + "/" + itoa(bob.ID)
	msgs := getHistory(t, handler, path, token)

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	wantContents := []string{"hi", "yo", "how are you"}
	for i, want := range wantContents {
		if msgs[i].Content != want {
			t.Errorf("message %d: expected %q, got %q", i, want, msgs[i].Content)
		}
	}
	if msgs[0].Sender.Username != "alice" || msgs[1].Sender.Username != "bob" {
		t.Error("sender profiles not resolved correctly")
	}

	// Symmetric: swapping the ids returns the same conversation.
	reversed := getHistory(t, handler, "/chat/history/"+itoa(bob.ID)+"/"+itoa(alice.ID), token)
	if len(reversed) != len(msgs) {
		t.Fatalf("expected symmetric history, got %d vs %d", len(reversed), len(msgs))
	}
	for i := range msgs {
		if reversed[i].ID != msgs[i].ID {
			t.Errorf("message %d: expected id %d, got %d", i, msgs[i].ID, reversed[i].ID)
		}
	}

	// Empty conversation is an empty array, not null.
	req := httptest.NewRequest(http.MethodGet, "/chat/history/"+itoa(bob.ID)+"/"+itoa(carol.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if body := resp.Body.String(); body != "[]" {
		t.Errorf("expected empty array body, got %q", body)
	}

	// Bad path param
	req = httptest.NewRequest(http.MethodGet, "/chat/history/abc/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.Code)
	}
}

func TestGroupHistory(t *testing.T) {
	handler, st, authService := newTestServer(t)
	ctx := context.Background()

	alice, token := registerVerifiedUser(t, authService, st, "alice", "secret123")
	bob, _ := registerVerifiedUser(t, authService, st, "bob", "secret123")

	group, err := st.CreateGroup(ctx, "team", alice.ID, "", []int64{bob.ID})
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	groupMsg := &store.Message{SenderID: alice.ID, Content: "welcome", GroupID: &group.ID, CreatedAt: base}
	if err := st.CreateMessage(ctx, groupMsg); err != nil {
		t.Fatalf("failed to seed group message: %v", err)
	}
	// Direct traffic between the same users stays out of group history.
	seedDirectMessage(t, st, alice.ID, bob.ID, "psst", base)

	msgs := getHistory(t, handler, "/chat/group-history/"+itoa(group.ID), token)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Content != "welcome" {
		t.Errorf("expected 'welcome', got %q", msgs[0].Content)
	}
	if msgs[0].GroupID == nil || *msgs[0].GroupID != group.ID {
		t.Error("expected group_id to be set")
	}
	if msgs[0].Recipient != nil {
		t.Error("group message must not carry a recipient")
	}
}
