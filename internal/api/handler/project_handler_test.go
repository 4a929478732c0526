package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ontoacademy/platform-api/internal/core/domain"
	"github.com/ontoacademy/platform-api/internal/core/ports"
)

// stubProjectService returns canned entities and records the last call.
type stubProjectService struct {
	project  *domain.Project
	projects []domain.Project
	msgs     []domain.ChatMessage
	err      error

	gotProjectID string
	gotLimit     int
}

func (s *stubProjectService) Create(_ context.Context, _ string, in ports.CreateProjectInput) (*domain.Project, error) {
	return s.project, s.err
}

func (s *stubProjectService) Get(_ context.Context, id, _ string) (*domain.Project, error) {
	s.gotProjectID = id
	return s.project, s.err
}

func (s *stubProjectService) List(context.Context, string) ([]domain.Project, error) {
	return s.projects, s.err
}

func (s *stubProjectService) Messages(_ context.Context, projectID, _ string, limit int) ([]domain.ChatMessage, error) {
	s.gotProjectID = projectID
	s.gotLimit = limit
	return s.msgs, s.err
}

func (s *stubProjectService) AppendMessage(_ context.Context, projectID, _ string, _ ports.AppendMessageInput) (*domain.ChatMessage, error) {
	s.gotProjectID = projectID
	if s.err != nil {
		return nil, s.err
	}
	return &s.msgs[0], nil
}

func sampleProject() *domain.Project {
	return &domain.Project{
		ID:             "srv-1",
		Name:           "Warehouse",
		Status:         domain.StatusDraft,
		Objects:        domain.EmptyJSONArray,
		Links:          domain.EmptyJSONArray,
		Integrations:   domain.EmptyJSONArray,
		AIRequirements: []string{},
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}

func TestProjectHandler_Create(t *testing.T) {
	h := NewProjectHandler(&stubProjectService{project: sampleProject()})

	c, rec := jsonRequest(t, http.MethodPost, "/api/projects",
		`{"name":"Warehouse","objects":[{"type":"node"}]}`)
	c.Set("user_id", "user-1")
	if err := h.Create(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201", rec.Code)
	}

	// Collections that are not arrays of objects never reach the service.
	c, _ = jsonRequest(t, http.MethodPost, "/api/projects",
		`{"name":"Warehouse","objects":{"a":1}}`)
	c.Set("user_id", "user-1")
	err := h.Create(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("got %v, want 400", err)
	}
}

func TestProjectHandler_Get(t *testing.T) {
	svc := &stubProjectService{project: sampleProject()}
	h := NewProjectHandler(svc)

	c, rec := jsonRequest(t, http.MethodGet, "/", "")
	c.SetPath("/api/projects/:id")
	c.SetParamNames("id")
	c.SetParamValues("srv-1")
	c.Set("user_id", "user-1")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK || svc.gotProjectID != "srv-1" {
		t.Fatalf("status %d, project %q", rec.Code, svc.gotProjectID)
	}

	svc.err = domain.ErrProjectNotFound
	c, _ = jsonRequest(t, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("srv-1")
	c.Set("user_id", "user-1")
	if err := h.Get(c); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("got %v, want ErrProjectNotFound", err)
	}
}

func TestProjectHandler_Messages(t *testing.T) {
	svc := &stubProjectService{msgs: []domain.ChatMessage{
		{ID: "msg-1", ProjectID: "srv-1", Role: domain.RoleUser, Content: "hello"},
	}}
	h := NewProjectHandler(svc)

	c, rec := jsonRequest(t, http.MethodGet, "/?limit=25", "")
	c.SetParamNames("id")
	c.SetParamValues("srv-1")
	c.Set("user_id", "user-1")
	if err := h.Messages(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if svc.gotLimit != 25 {
		t.Fatalf("limit not forwarded: %d", svc.gotLimit)
	}

	var msgs []domain.ChatMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("messages: %+v", msgs)
	}
}

func TestProjectHandler_AppendMessage(t *testing.T) {
	svc := &stubProjectService{msgs: []domain.ChatMessage{
		{ID: "msg-1", ProjectID: "srv-1", Role: domain.RoleUser, Content: "hello", CreatedAt: time.Now().UTC()},
	}}
	h := NewProjectHandler(svc)

	c, rec := jsonRequest(t, http.MethodPost, "/", `{"role":"user","content":"hello"}`)
	c.SetParamNames("id")
	c.SetParamValues("srv-1")
	c.Set("user_id", "user-1")
	if err := h.AppendMessage(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201", rec.Code)
	}

	c, _ = jsonRequest(t, http.MethodPost, "/", `{"role":"system","content":"hello"}`)
	c.SetParamNames("id")
	c.SetParamValues("srv-1")
	c.Set("user_id", "user-1")
	err := h.AppendMessage(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("invalid role: got %v, want 400", err)
	}
}
