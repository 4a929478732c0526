package ports

import (
	"context"
	"encoding/json"

	"github.com/ontoacademy/platform-api/internal/core/domain"
)

// EntityRepository persists the user-scoped entities the sync reconciler
// operates on. Every read and write filters by the owning user so that
// "exists but not yours" and "does not exist" are indistinguishable.
type EntityRepository interface {
	// ResolveOwnedProjects returns, in a single query, the subset of ids that
	// exist and belong to userID.
	ResolveOwnedProjects(ctx context.Context, userID string, ids []string) (map[string]struct{}, error)
	CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error)
	// UpdateProject fully replaces the mutable fields of an owned project.
	UpdateProject(ctx context.Context, p *domain.Project) error
	FindProject(ctx context.Context, id, userID string) (*domain.Project, error)
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)

	// InsertChatMessages bulk-inserts msgs, assigning server ids and creation
	// timestamps in place, and returns the number inserted.
	InsertChatMessages(ctx context.Context, projectID string, msgs []domain.ChatMessage) (int, error)
	// ListChatMessages returns up to limit most recent messages in creation
	// order ascending.
	ListChatMessages(ctx context.Context, projectID string, limit int) ([]domain.ChatMessage, error)

	UpsertPreferences(ctx context.Context, userID string, prefs json.RawMessage) error
	FindPreferences(ctx context.Context, userID string) (json.RawMessage, error)

	UpsertArchetype(ctx context.Context, a *domain.ImportedArchetype) (*domain.ImportedArchetype, error)
	ListArchetypes(ctx context.Context, userID string) ([]domain.ImportedArchetype, error)

	// InTransaction runs fn against a repository bound to one serializable
	// transaction. The whole unit commits or rolls back together.
	InTransaction(ctx context.Context, fn func(EntityRepository) error) error
}
