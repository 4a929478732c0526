package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ontoacademy/platform-api/internal/core/domain"
	"github.com/ontoacademy/platform-api/internal/core/ports"
)

const defaultMessageLimit = 100

// ProjectService implements explicit (non-sync) project and chat operations.
type ProjectService struct {
	repo ports.EntityRepository
	log  zerolog.Logger
}

func NewProjectService(repo ports.EntityRepository, log zerolog.Logger) *ProjectService {
	return &ProjectService{repo: repo, log: log}
}

func (s *ProjectService) Create(ctx context.Context, userID string, in ports.CreateProjectInput) (*domain.Project, error) {
	status := domain.ProjectStatus(in.Status)
	if status == "" {
		status = domain.StatusDraft
	}
	reqs := in.AIRequirements
	if reqs == nil {
		reqs = []string{}
	}
	project, err := s.repo.CreateProject(ctx, &domain.Project{
		UserID:         userID,
		Name:           in.Name,
		Industry:       in.Industry,
		UseCase:        in.UseCase,
		Status:         status,
		Objects:        domain.NormalizeCollection(in.Objects),
		Links:          domain.NormalizeCollection(in.Links),
		Integrations:   domain.NormalizeCollection(in.Integrations),
		AIRequirements: reqs,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("project_id", project.ID).Str("user_id", userID).Msg("project created")
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id, userID string) (*domain.Project, error) {
	return s.repo.FindProject(ctx, id, userID)
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx, userID)
}

func (s *ProjectService) Messages(ctx context.Context, projectID, userID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	// Ownership gate before touching messages.
	if _, err := s.repo.FindProject(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListChatMessages(ctx, projectID, limit)
}

func (s *ProjectService) AppendMessage(ctx context.Context, projectID, userID string, in ports.AppendMessageInput) (*domain.ChatMessage, error) {
	if _, err := s.repo.FindProject(ctx, projectID, userID); err != nil {
		return nil, err
	}
	msgs := []domain.ChatMessage{{
		ProjectID: projectID,
		Role:      domain.ChatRole(in.Role),
		Content:   in.Content,
		Metadata:  in.Metadata,
	}}
	if _, err := s.repo.InsertChatMessages(ctx, projectID, msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}
