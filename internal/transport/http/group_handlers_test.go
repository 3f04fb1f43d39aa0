package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateGroup(t *testing.T) {
	handler, st, authService := newTestServer(t)

	alice, token := registerVerifiedUser(t, authService, st, "alice", "secret123")
	bob, _ := registerVerifiedUser(t, authService, st, "bob", "secret123")

	// Admin is included even though not listed as a member.
	body := fmt.Sprintf(`{"name":"team","admin":%d,"members":[%d]}`, alice.ID, bob.ID)
	req := httptest.NewRequest(http.MethodPost, "/groups/create", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var group GroupResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &group); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if group.Name != "team" {
		t.Errorf("expected name 'team', got '%s'", group.Name)
	}
	if len(group.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(group.Members))
	}
	memberIDs := map[int64]bool{}
	for _, m := range group.Members {
		memberIDs[m.ID] = true
	}
	if !memberIDs[alice.ID] || !memberIDs[bob.ID] {
		t.Errorf("expected members %d and %d, got %v", alice.ID, bob.ID, memberIDs)
	}

	// Blank name
	body = fmt.Sprintf(`{"name":"   ","admin":%d}`, alice.ID)
	req = httptest.NewRequest(http.MethodPost, "/groups/create", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for blank name, got %d", resp.Code)
	}
}

func TestAddGroupMember(t *testing.T) {
	handler, st, authService := newTestServer(t)

	alice, token := registerVerifiedUser(t, authService, st, "alice", "secret123")
	bob, _ := registerVerifiedUser(t, authService, st, "bob", "secret123")

	group, err := st.CreateGroup(context.Background(), "team", alice.ID, "", nil)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	addMember := func(groupID string, memberID int64) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"member_id":%d}`, memberID)
		req := httptest.NewRequest(http.MethodPut, "/groups/"+groupID+"/add-member", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	// New member
	resp := addMember(itoa(group.ID), bob.ID)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated GroupResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(updated.Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(updated.Members))
	}

	// Already a member
	resp = addMember(itoa(group.ID), bob.ID)
	if resp.Code != http.StatusConflict {
		t.Errorf("expected status 409 for duplicate member, got %d", resp.Code)
	}

	// Unknown group
	resp = addMember("9999", bob.ID)
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown group, got %d", resp.Code)
	}

	// Unknown user
	resp = addMember(itoa(group.ID), 9999)
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown user, got %d", resp.Code)
	}
}

func TestUpdateGroup(t *testing.T) {
	handler, st, authService := newTestServer(t)

	alice, token := registerVerifiedUser(t, authService, st, "alice", "secret123")

	group, err := st.CreateGroup(context.Background(), "team", alice.ID, "", nil)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	body := `{"name":"renamed","profile_pic":"pic.png"}`
	req := httptest.NewRequest(http.MethodPut, "/groups/"+itoa(group.ID)+"/update", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated GroupResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if updated.Name != "renamed" || updated.ProfilePic != "pic.png" {
		t.Errorf("unexpected group after update: %+v", updated)
	}

	// Unknown group
	req = httptest.NewRequest(http.MethodPut, "/groups/9999/update", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.Code)
	}
}

func TestListGroupsForUser(t *testing.T) {
	handler, st, authService := newTestServer(t)

	alice, token := registerVerifiedUser(t, authService, st, "alice", "secret123")
	bob, _ := registerVerifiedUser(t, authService, st, "bob", "secret123")

	if _, err := st.CreateGroup(context.Background(), "team", alice.ID, "", []int64{bob.ID}); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	if _, err := st.CreateGroup(context.Background(), "private", bob.ID, "", nil); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/groups/user/"+itoa(alice.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var list []GroupResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 group, got %d", len(list))
	}
	if list[0].Name != "team" {
		t.Errorf("expected group 'team', got '%s'", list[0].Name)
	}
}
