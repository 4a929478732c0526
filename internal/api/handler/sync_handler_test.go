package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ontoacademy/platform-api/internal/core/ports"
)

// stubSyncService records the forwarded input and returns canned results.
type stubSyncService struct {
	gotUserID string
	gotInput  ports.BatchSyncInput
	result    *ports.SyncResult
	state     *ports.FullState
	err       error
}

func (s *stubSyncService) BatchSync(_ context.Context, userID string, in ports.BatchSyncInput) (*ports.SyncResult, error) {
	s.gotUserID = userID
	s.gotInput = in
	return s.result, s.err
}

func (s *stubSyncService) FullState(_ context.Context, userID string) (*ports.FullState, error) {
	s.gotUserID = userID
	return s.state, s.err
}

func emptySyncResult() *ports.SyncResult {
	return &ports.SyncResult{
		Projects: ports.ProjectSyncOutcome{
			Created:  []string{},
			Updated:  []string{},
			Failed:   []string{},
			Mappings: []ports.IDMapping{},
		},
		SyncedAt: time.Now().UTC(),
	}
}

func TestSyncHandler_BatchSync(t *testing.T) {
	svc := &stubSyncService{result: emptySyncResult()}
	h := NewSyncHandler(svc)

	body := `{
		"projects":[{"localId":"local-1","name":"Warehouse","status":"draft","objects":[{"type":"node"}]}],
		"chatMessages":[{"projectId":"srv-1","messages":[{"role":"user","content":"hello"}]}],
		"preferences":{"theme":"dark"},
		"archetypes":[{"archetypeId":"warehouse-v1","archetype":{"v":1},"originType":"reference"}]
	}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/sync", body)
	c.Set("user_id", "user-1")

	if err := h.BatchSync(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if svc.gotUserID != "user-1" {
		t.Fatalf("user id: %q", svc.gotUserID)
	}
	if len(svc.gotInput.Projects) != 1 || svc.gotInput.Projects[0].LocalID != "local-1" {
		t.Fatalf("projects not forwarded: %+v", svc.gotInput.Projects)
	}
	if len(svc.gotInput.ChatMessages) != 1 || len(svc.gotInput.ChatMessages[0].Messages) != 1 {
		t.Fatalf("chat batches not forwarded: %+v", svc.gotInput.ChatMessages)
	}
	if string(svc.gotInput.Preferences) != `{"theme":"dark"}` {
		t.Fatalf("preferences not forwarded: %s", svc.gotInput.Preferences)
	}
	if len(svc.gotInput.Archetypes) != 1 || svc.gotInput.Archetypes[0].ArchetypeID != "warehouse-v1" {
		t.Fatalf("archetypes not forwarded: %+v", svc.gotInput.Archetypes)
	}
}

func TestSyncHandler_BatchSyncRequiresAuth(t *testing.T) {
	h := NewSyncHandler(&stubSyncService{result: emptySyncResult()})
	c, _ := jsonRequest(t, http.MethodPost, "/api/sync", `{}`)

	err := h.BatchSync(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
}

func TestSyncHandler_BatchSyncValidation(t *testing.T) {
	h := NewSyncHandler(&stubSyncService{result: emptySyncResult()})

	cases := []struct {
		name string
		body string
	}{
		{"project without name", `{"projects":[{"industry":"logistics"}]}`},
		{"bad status", `{"projects":[{"name":"X","status":"frozen"}]}`},
		{"bad role", `{"chatMessages":[{"projectId":"p","messages":[{"role":"system","content":"x"}]}]}`},
		{"empty message batch", `{"chatMessages":[{"projectId":"p","messages":[]}]}`},
		{"bad origin type", `{"archetypes":[{"archetypeId":"a","archetype":{},"originType":"cloned"}]}`},
		// Ontology collections must be arrays of objects.
		{"objects not an array", `{"projects":[{"name":"X","objects":{"a":1}}]}`},
		{"objects with scalar element", `{"projects":[{"name":"X","objects":[1,2]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := jsonRequest(t, http.MethodPost, "/api/sync", tc.body)
			c.Set("user_id", "user-1")
			err := h.BatchSync(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
				t.Fatalf("got %v, want 400", err)
			}
		})
	}
}

func TestSyncHandler_FullState(t *testing.T) {
	svc := &stubSyncService{state: &ports.FullState{
		Preferences: json.RawMessage(`{"theme":"dark"}`),
	}}
	h := NewSyncHandler(svc)

	c, rec := jsonRequest(t, http.MethodGet, "/api/sync/state", "")
	c.Set("user_id", "user-1")
	if err := h.FullState(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if svc.gotUserID != "user-1" {
		t.Fatalf("user id: %q", svc.gotUserID)
	}

	var state ports.FullState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(state.Preferences) != `{"theme":"dark"}` {
		t.Fatalf("state: %+v", state)
	}
}
