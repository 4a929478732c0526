package ports

import (
	"context"
	"encoding/json"

	"github.com/ontoacademy/platform-api/internal/core/domain"
)

// CreateProjectInput carries the fields of an explicit server-side create.
type CreateProjectInput struct {
	Name           string
	Industry       string
	UseCase        string
	Status         string
	Objects        json.RawMessage
	Links          json.RawMessage
	Integrations   json.RawMessage
	AIRequirements []string
}

// AppendMessageInput appends one chat message to an owned project.
type AppendMessageInput struct {
	Role     string
	Content  string
	Metadata json.RawMessage
}

type ProjectService interface {
	Create(ctx context.Context, userID string, in CreateProjectInput) (*domain.Project, error)
	Get(ctx context.Context, id, userID string) (*domain.Project, error)
	List(ctx context.Context, userID string) ([]domain.Project, error)
	Messages(ctx context.Context, projectID, userID string, limit int) ([]domain.ChatMessage, error)
	AppendMessage(ctx context.Context, projectID, userID string, in AppendMessageInput) (*domain.ChatMessage, error)
}
