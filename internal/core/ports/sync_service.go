package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ontoacademy/platform-api/internal/core/domain"
)

// ProjectSyncInput is one client-authored project in a batch. ID carries a
// server-assigned id when the client has one; LocalID is the client's own
// placeholder used purely for result mapping.
type ProjectSyncInput struct {
	ID             string          `json:"id,omitempty"`
	LocalID        string          `json:"localId,omitempty"`
	Name           string          `json:"name"`
	Industry       string          `json:"industry"`
	UseCase        string          `json:"useCase"`
	Status         string          `json:"status"`
	Objects        json.RawMessage `json:"objects,omitempty"`
	Links          json.RawMessage `json:"links,omitempty"`
	Integrations   json.RawMessage `json:"integrations,omitempty"`
	AIRequirements []string        `json:"aiRequirements,omitempty"`
}

// ChatMessageInput is a single message inside a ChatBatchInput.
type ChatMessageInput struct {
	Role     string          `json:"role"`
	Content  string          `json:"content"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ChatBatchInput groups messages destined for one project.
type ChatBatchInput struct {
	ProjectID string             `json:"projectId"`
	Messages  []ChatMessageInput `json:"messages"`
}

// ArchetypeSyncInput upserts one archetype under the caller's library.
type ArchetypeSyncInput struct {
	ArchetypeID string          `json:"archetypeId"`
	Archetype   json.RawMessage `json:"archetype"`
	OriginType  string          `json:"originType"`
	OriginData  json.RawMessage `json:"originData,omitempty"`
}

// BatchSyncInput is the unit of work for one reconciler invocation.
type BatchSyncInput struct {
	Projects     []ProjectSyncInput  `json:"projects,omitempty"`
	ChatMessages []ChatBatchInput    `json:"chatMessages,omitempty"`
	Preferences  json.RawMessage     `json:"preferences,omitempty"`
	Archetypes   []ArchetypeSyncInput `json:"archetypes,omitempty"`
}

// IDMapping rewrites one client-local project id to its server-assigned id.
type IDMapping struct {
	LocalID string `json:"localId"`
	CloudID string `json:"cloudId"`
}

// ProjectSyncOutcome reports the project phase: server ids created or updated,
// identifiers (or names) of items that failed, and the local→cloud mapping.
type ProjectSyncOutcome struct {
	Created  []string    `json:"created"`
	Updated  []string    `json:"updated"`
	Failed   []string    `json:"failed"`
	Mappings []IDMapping `json:"mappings"`
}

// SyncResult is the per-category outcome of one batch sync.
type SyncResult struct {
	Projects           ProjectSyncOutcome `json:"projects"`
	ChatMessagesAdded  int                `json:"chatMessagesAdded"`
	PreferencesUpdated bool               `json:"preferencesUpdated"`
	ArchetypesSynced   int                `json:"archetypesSynced"`
	SyncedAt           time.Time          `json:"syncedAt"`
}

// FullState is the hydration snapshot returned after login.
type FullState struct {
	Projects    []domain.Project           `json:"projects"`
	Preferences json.RawMessage            `json:"preferences,omitempty"`
	Archetypes  []domain.ImportedArchetype `json:"archetypes"`
}

type SyncService interface {
	BatchSync(ctx context.Context, userID string, in BatchSyncInput) (*SyncResult, error)
	FullState(ctx context.Context, userID string) (*FullState, error)
}
