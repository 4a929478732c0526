package handler

import (
	"encoding/json"
)

// batchSyncRequest mirrors ports.BatchSyncInput at the wire boundary with
// validation tags. Ontology collections are checked for array-of-objects
// structure before any persistence work begins.
type syncProjectRequest struct {
	ID             string          `json:"id,omitempty"`
	LocalID        string          `json:"localId,omitempty"`
	Name           string          `json:"name"     validate:"required,max=200"`
	Industry       string          `json:"industry" validate:"max=100"`
	UseCase        string          `json:"useCase"  validate:"max=500"`
	Status         string          `json:"status"   validate:"omitempty,oneof=draft active completed archived"`
	Objects        json.RawMessage `json:"objects,omitempty"`
	Links          json.RawMessage `json:"links,omitempty"`
	Integrations   json.RawMessage `json:"integrations,omitempty"`
	AIRequirements []string        `json:"aiRequirements,omitempty"`
}

type syncChatMessageRequest struct {
	Role     string          `json:"role"    validate:"required,oneof=user assistant"`
	Content  string          `json:"content" validate:"required"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type syncChatBatchRequest struct {
	ProjectID string                   `json:"projectId" validate:"required"`
	Messages  []syncChatMessageRequest `json:"messages"  validate:"required,min=1,dive"`
}

type syncArchetypeRequest struct {
	ArchetypeID string          `json:"archetypeId" validate:"required,max=200"`
	Archetype   json.RawMessage `json:"archetype"   validate:"required"`
	OriginType  string          `json:"originType"  validate:"required,oneof=reference ai-generated"`
	OriginData  json.RawMessage `json:"originData,omitempty"`
}

type batchSyncRequest struct {
	Projects     []syncProjectRequest   `json:"projects,omitempty"     validate:"omitempty,dive"`
	ChatMessages []syncChatBatchRequest `json:"chatMessages,omitempty" validate:"omitempty,dive"`
	Preferences  json.RawMessage        `json:"preferences,omitempty"`
	Archetypes   []syncArchetypeRequest `json:"archetypes,omitempty"   validate:"omitempty,dive"`
}
