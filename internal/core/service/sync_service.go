package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ontoacademy/platform-api/internal/api/metrics"
	"github.com/ontoacademy/platform-api/internal/core/domain"
	"github.com/ontoacademy/platform-api/internal/core/ports"
)

const (
	defaultSyncTimeout = 30 * time.Second

	// localIDPrefix recognizes legacy clients that send their offline
	// placeholder in the id field instead of localId.
	localIDPrefix = "proj-"

	// fullStateMessageLimit caps per-project message hydration.
	fullStateMessageLimit = 100
)

// SyncService reconciles a client's offline-accumulated mutations against the
// server of record. One BatchSync call is one serializable transaction.
type SyncService struct {
	repo    ports.EntityRepository
	timeout time.Duration
	log     zerolog.Logger
}

func NewSyncService(repo ports.EntityRepository, timeout time.Duration, log zerolog.Logger) *SyncService {
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	return &SyncService{repo: repo, timeout: timeout, log: log}
}

// BatchSync applies all four sub-phases (projects, chat messages, preferences,
// archetypes) inside a single transaction. Sub-phases are independent of each
// other but commit or roll back together; the transaction carries an explicit
// deadline to bound lock contention.
func (s *SyncService) BatchSync(ctx context.Context, userID string, in ports.BatchSyncInput) (*ports.SyncResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result := &ports.SyncResult{
		Projects: ports.ProjectSyncOutcome{
			Created:  []string{},
			Updated:  []string{},
			Failed:   []string{},
			Mappings: []ports.IDMapping{},
		},
	}

	err := s.repo.InTransaction(ctx, func(tx ports.EntityRepository) error {
		if err := s.syncProjects(ctx, tx, userID, in.Projects, result); err != nil {
			return err
		}
		if err := s.syncChatMessages(ctx, tx, userID, in.ChatMessages, result); err != nil {
			return err
		}
		if len(in.Preferences) > 0 {
			if err := tx.UpsertPreferences(ctx, userID, in.Preferences); err != nil {
				return err
			}
			result.PreferencesUpdated = true
		}
		return s.syncArchetypes(ctx, tx, userID, in.Archetypes, result)
	})
	if err != nil {
		metrics.SyncBatchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	result.SyncedAt = time.Now().UTC()
	metrics.SyncBatchesTotal.WithLabelValues("ok").Inc()
	metrics.SyncBatchDuration.Observe(time.Since(start).Seconds())
	s.log.Info().
		Str("user_id", userID).
		Int("created", len(result.Projects.Created)).
		Int("updated", len(result.Projects.Updated)).
		Int("failed", len(result.Projects.Failed)).
		Int("messages", result.ChatMessagesAdded).
		Int("archetypes", result.ArchetypesSynced).
		Msg("batch sync committed")
	return result, nil
}

// syncProjects reconciles project payloads. Ownership of every carried server
// id is resolved in one batched query, then each payload is classified as an
// update (id resolved as owned) or a create (no id, or an id this user does
// not own). Item failures land in the failed bucket without aborting the
// phase.
func (s *SyncService) syncProjects(ctx context.Context, tx ports.EntityRepository, userID string, inputs []ports.ProjectSyncInput, result *ports.SyncResult) error {
	if len(inputs) == 0 {
		return nil
	}

	serverIDs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if id, local := splitSyncID(in); !local && id != "" {
			serverIDs = append(serverIDs, id)
		}
	}
	owned, err := tx.ResolveOwnedProjects(ctx, userID, serverIDs)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		id, local := splitSyncID(in)
		project := projectFromSync(userID, in)

		if !local && id != "" {
			if _, ok := owned[id]; ok {
				project.ID = id
				if err := tx.UpdateProject(ctx, project); err != nil {
					s.log.Warn().Err(err).Str("project_id", id).Msg("project update failed")
					result.Projects.Failed = append(result.Projects.Failed, id)
					metrics.SyncProjectsTotal.WithLabelValues("failed").Inc()
					continue
				}
				result.Projects.Updated = append(result.Projects.Updated, id)
				metrics.SyncProjectsTotal.WithLabelValues("updated").Inc()
				continue
			}
			// Unresolved server id: fall through to create with a fresh id.
		}

		created, err := tx.CreateProject(ctx, project)
		if err != nil {
			s.log.Warn().Err(err).Str("name", in.Name).Msg("project create failed")
			result.Projects.Failed = append(result.Projects.Failed, failedIdentifier(in))
			metrics.SyncProjectsTotal.WithLabelValues("failed").Inc()
			continue
		}
		result.Projects.Created = append(result.Projects.Created, created.ID)
		metrics.SyncProjectsTotal.WithLabelValues("created").Inc()
		if localID := localIdentifier(in); localID != "" {
			result.Projects.Mappings = append(result.Projects.Mappings, ports.IDMapping{
				LocalID: localID,
				CloudID: created.ID,
			})
		}
	}
	return nil
}

// syncChatMessages bulk-inserts message batches after one batched ownership
// check. Batches for projects the caller does not own are skipped silently: a
// batch referencing a project the same payload failed to create is expected.
func (s *SyncService) syncChatMessages(ctx context.Context, tx ports.EntityRepository, userID string, batches []ports.ChatBatchInput, result *ports.SyncResult) error {
	if len(batches) == 0 {
		return nil
	}

	ids := make([]string, 0, len(batches))
	seen := make(map[string]struct{}, len(batches))
	for _, b := range batches {
		if _, ok := seen[b.ProjectID]; !ok {
			seen[b.ProjectID] = struct{}{}
			ids = append(ids, b.ProjectID)
		}
	}
	owned, err := tx.ResolveOwnedProjects(ctx, userID, ids)
	if err != nil {
		return err
	}

	for _, b := range batches {
		if _, ok := owned[b.ProjectID]; !ok {
			s.log.Debug().Str("project_id", b.ProjectID).Msg("chat batch for unowned project skipped")
			continue
		}
		msgs := make([]domain.ChatMessage, len(b.Messages))
		for i, m := range b.Messages {
			msgs[i] = domain.ChatMessage{
				ProjectID: b.ProjectID,
				Role:      domain.ChatRole(m.Role),
				Content:   m.Content,
				Metadata:  m.Metadata,
			}
		}
		n, err := tx.InsertChatMessages(ctx, b.ProjectID, msgs)
		if err != nil {
			return err
		}
		result.ChatMessagesAdded += n
	}
	metrics.SyncMessagesAddedTotal.Add(float64(result.ChatMessagesAdded))
	return nil
}

// syncArchetypes upserts every archetype by its (userID, archetypeID) business
// key. Unlike projects there is no per-item isolation: any failure aborts the
// whole batch.
func (s *SyncService) syncArchetypes(ctx context.Context, tx ports.EntityRepository, userID string, inputs []ports.ArchetypeSyncInput, result *ports.SyncResult) error {
	for _, in := range inputs {
		_, err := tx.UpsertArchetype(ctx, &domain.ImportedArchetype{
			UserID:      userID,
			ArchetypeID: in.ArchetypeID,
			Archetype:   in.Archetype,
			OriginType:  domain.ArchetypeOrigin(in.OriginType),
			OriginData:  in.OriginData,
		})
		if err != nil {
			return err
		}
		result.ArchetypesSynced++
	}
	return nil
}

// FullState loads the user's projects (each with its most recent messages),
// preferences, and archetypes in parallel for initial client hydration.
func (s *SyncService) FullState(ctx context.Context, userID string) (*ports.FullState, error) {
	state := &ports.FullState{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		projects, err := s.repo.ListProjects(gctx, userID)
		if err != nil {
			return err
		}
		for i := range projects {
			msgs, err := s.repo.ListChatMessages(gctx, projects[i].ID, fullStateMessageLimit)
			if err != nil {
				return err
			}
			projects[i].Messages = msgs
		}
		state.Projects = projects
		return nil
	})
	g.Go(func() error {
		prefs, err := s.repo.FindPreferences(gctx, userID)
		if err != nil {
			return err
		}
		state.Preferences = prefs
		return nil
	})
	g.Go(func() error {
		archetypes, err := s.repo.ListArchetypes(gctx, userID)
		if err != nil {
			return err
		}
		state.Archetypes = archetypes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return state, nil
}

// splitSyncID classifies the id field of a payload: a value carrying the
// legacy client-local prefix is not a server id.
func splitSyncID(in ports.ProjectSyncInput) (id string, local bool) {
	if strings.HasPrefix(in.ID, localIDPrefix) {
		return in.ID, true
	}
	return in.ID, false
}

// localIdentifier picks the value the client expects in the result mapping:
// the explicit localId field, or the legacy prefixed id.
func localIdentifier(in ports.ProjectSyncInput) string {
	if in.LocalID != "" {
		return in.LocalID
	}
	if strings.HasPrefix(in.ID, localIDPrefix) {
		return in.ID
	}
	return ""
}

// failedIdentifier names a failed item by id when present, else by name.
func failedIdentifier(in ports.ProjectSyncInput) string {
	if in.ID != "" {
		return in.ID
	}
	if in.LocalID != "" {
		return in.LocalID
	}
	return in.Name
}

func projectFromSync(userID string, in ports.ProjectSyncInput) *domain.Project {
	status := domain.ProjectStatus(in.Status)
	if status == "" {
		status = domain.StatusDraft
	}
	reqs := in.AIRequirements
	if reqs == nil {
		reqs = []string{}
	}
	return &domain.Project{
		UserID:         userID,
		Name:           in.Name,
		Industry:       in.Industry,
		UseCase:        in.UseCase,
		Status:         status,
		Objects:        domain.NormalizeCollection(in.Objects),
		Links:          domain.NormalizeCollection(in.Links),
		Integrations:   domain.NormalizeCollection(in.Integrations),
		AIRequirements: reqs,
	}
}
