package handler

import "encoding/json"

type createProjectRequest struct {
	Name           string          `json:"name"     validate:"required,max=200"`
	Industry       string          `json:"industry" validate:"max=100"`
	UseCase        string          `json:"useCase"  validate:"max=500"`
	Status         string          `json:"status"   validate:"omitempty,oneof=draft active completed archived"`
	Objects        json.RawMessage `json:"objects,omitempty"`
	Links          json.RawMessage `json:"links,omitempty"`
	Integrations   json.RawMessage `json:"integrations,omitempty"`
	AIRequirements []string        `json:"aiRequirements,omitempty"`
}

type appendMessageRequest struct {
	Role     string          `json:"role"    validate:"required,oneof=user assistant"`
	Content  string          `json:"content" validate:"required"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}
