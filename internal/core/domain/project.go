package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ProjectStatus represents the lifecycle state of an ontology project.
type ProjectStatus string

const (
	StatusDraft     ProjectStatus = "draft"
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusArchived  ProjectStatus = "archived"
)

var ErrProjectNotFound = errors.New("project not found")
var ErrForbiddenOrigin = errors.New("request origin not allowed")

// ErrTxConflict marks a serialization failure or transaction timeout; the
// request is safe to retry.
var ErrTxConflict = errors.New("transaction conflict, retry")

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// Project is the core aggregate: one ontology design workspace, exclusively
// owned by a single user. The three ontology collections are stored as opaque
// JSON documents validated at the API boundary; their inner shapes evolve with
// the client and are not interpreted server-side.
type Project struct {
	ID             string          `json:"id"`
	UserID         string          `json:"-"`
	Name           string          `json:"name"`
	Industry       string          `json:"industry"`
	UseCase        string          `json:"useCase"`
	Status         ProjectStatus   `json:"status"`
	Objects        json.RawMessage `json:"objects"`
	Links          json.RawMessage `json:"links"`
	Integrations   json.RawMessage `json:"integrations"`
	AIRequirements []string        `json:"aiRequirements"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Messages       []ChatMessage   `json:"messages,omitempty"`
}

// ChatMessage is an append-only conversation entry scoped to a project.
// Consumption order is creation time ascending.
type ChatMessage struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	Role      ChatRole        `json:"role"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ArchetypeOrigin distinguishes how an archetype entered the user's library.
type ArchetypeOrigin string

const (
	OriginReference   ArchetypeOrigin = "reference"
	OriginAIGenerated ArchetypeOrigin = "ai-generated"
)

// ImportedArchetype is a user-scoped copy of an ontology archetype. The
// (UserID, ArchetypeID) pair is the business key: importing the same archetype
// twice replaces the stored content instead of erroring.
type ImportedArchetype struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	ArchetypeID string          `json:"archetypeId"`
	Archetype   json.RawMessage `json:"archetype"`
	OriginType  ArchetypeOrigin `json:"originType"`
	OriginData  json.RawMessage `json:"originData,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// EmptyJSONArray is the stored value for absent ontology collections.
var EmptyJSONArray = json.RawMessage(`[]`)

// NormalizeCollection returns an empty JSON array for nil/empty collections so
// the store never holds SQL NULLs for JSONB columns.
func NormalizeCollection(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return EmptyJSONArray
	}
	return raw
}

// ValidCollection checks that an ontology collection payload is a JSON array
// of objects. Element shapes stay opaque for forward compatibility.
func ValidCollection(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return false
	}
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return false
		}
	}
	return true
}
