package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ontoacademy/platform-api/internal/core/domain"
	"github.com/ontoacademy/platform-api/internal/core/ports"
)

// EntityRepository persists projects, chat messages, preferences, and
// archetypes. A repository is either bound to the pool or, via InTransaction,
// to a single serializable transaction.
type EntityRepository struct {
	db *sql.DB // nil when transaction-bound
	q  DBTX
}

func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db, q: db}
}

// InTransaction runs fn against a repository bound to one serializable
// transaction. Nested calls reuse the surrounding transaction.
func (r *EntityRepository) InTransaction(ctx context.Context, fn func(ports.EntityRepository) error) error {
	if r.db == nil {
		return fn(r)
	}
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	return withTx(ctx, r.db, opts, func(tx DBTX) error {
		return fn(&EntityRepository{q: tx})
	})
}

// ResolveOwnedProjects resolves ownership for all candidate ids in one query.
// Values that are not well-formed ids cannot match a server row and are
// filtered out rather than sent to the database.
func (r *EntityRepository) ResolveOwnedProjects(ctx context.Context, userID string, ids []string) (map[string]struct{}, error) {
	owned := make(map[string]struct{}, len(ids))
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if uuid.Validate(id) == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return owned, nil
	}

	placeholders := make([]string, len(valid))
	args := make([]any, 0, len(valid)+1)
	args = append(args, userID)
	for i, id := range valid {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	query := fmt.Sprintf(`
		SELECT id FROM projects
		WHERE user_id = $1 AND id IN (%s)
	`, strings.Join(placeholders, ", "))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve owned projects: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned[id] = struct{}{}
	}
	return owned, rows.Err()
}

func (r *EntityRepository) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	created := *p
	created.ID = uuid.NewString()
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	reqs, err := json.Marshal(created.AIRequirements)
	if err != nil {
		return nil, fmt.Errorf("marshal ai requirements: %w", err)
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, name, industry, use_case, status,
			objects, links, integrations, ai_requirements, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, created.ID, created.UserID, created.Name, created.Industry, created.UseCase,
		string(created.Status),
		[]byte(domain.NormalizeCollection(created.Objects)),
		[]byte(domain.NormalizeCollection(created.Links)),
		[]byte(domain.NormalizeCollection(created.Integrations)),
		reqs, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &created, nil
}

func (r *EntityRepository) UpdateProject(ctx context.Context, p *domain.Project) error {
	reqs, err := json.Marshal(p.AIRequirements)
	if err != nil {
		return fmt.Errorf("marshal ai requirements: %w", err)
	}
	res, err := r.q.ExecContext(ctx, `
		UPDATE projects
		SET name = $3, industry = $4, use_case = $5, status = $6,
			objects = $7, links = $8, integrations = $9, ai_requirements = $10,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, p.ID, p.UserID, p.Name, p.Industry, p.UseCase, string(p.Status),
		[]byte(domain.NormalizeCollection(p.Objects)),
		[]byte(domain.NormalizeCollection(p.Links)),
		[]byte(domain.NormalizeCollection(p.Integrations)),
		reqs)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *EntityRepository) FindProject(ctx context.Context, id, userID string) (*domain.Project, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrProjectNotFound
	}
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, name, industry, use_case, status,
			objects, links, integrations, ai_requirements, created_at, updated_at
		FROM projects WHERE id = $1 AND user_id = $2
	`, id, userID)
	p, err := scanProject(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *EntityRepository) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, name, industry, use_case, status,
			objects, links, integrations, ai_requirements, created_at, updated_at
		FROM projects WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *EntityRepository) InsertChatMessages(ctx context.Context, projectID string, msgs []domain.ChatMessage) (int, error) {
	now := time.Now().UTC()
	for i := range msgs {
		msgs[i].ID = uuid.NewString()
		msgs[i].ProjectID = projectID
		// Microsecond offsets keep intra-batch order stable under the
		// ascending-by-creation consumption order.
		msgs[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)

		var metadata any
		if len(msgs[i].Metadata) > 0 {
			metadata = []byte(msgs[i].Metadata)
		}
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO chat_messages (id, project_id, role, content, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, msgs[i].ID, projectID, string(msgs[i].Role), msgs[i].Content, metadata, msgs[i].CreatedAt); err != nil {
			return 0, fmt.Errorf("insert chat message: %w", err)
		}
	}
	return len(msgs), nil
}

// ListChatMessages reads the most recent messages descending and reverses
// them, returning ascending creation order.
func (r *EntityRepository) ListChatMessages(ctx context.Context, projectID string, limit int) ([]domain.ChatMessage, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, project_id, role, content, metadata, created_at
		FROM chat_messages WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.ChatMessage{}
	for rows.Next() {
		var m domain.ChatMessage
		var role string
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.ProjectID, &role, &m.Content, &metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = domain.ChatRole(role)
		if len(metadata) > 0 {
			m.Metadata = json.RawMessage(metadata)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *EntityRepository) UpsertPreferences(ctx context.Context, userID string, prefs json.RawMessage) error {
	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, userID, []byte(prefs)); err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func (r *EntityRepository) FindPreferences(ctx context.Context, userID string) (json.RawMessage, error) {
	var data []byte
	err := r.q.QueryRowContext(ctx, `
		SELECT data FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find preferences: %w", err)
	}
	return json.RawMessage(data), nil
}

func (r *EntityRepository) UpsertArchetype(ctx context.Context, a *domain.ImportedArchetype) (*domain.ImportedArchetype, error) {
	stored := *a
	var originData any
	if len(stored.OriginData) > 0 {
		originData = []byte(stored.OriginData)
	}
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO imported_archetypes (id, user_id, archetype_id, archetype, origin_type, origin_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, archetype_id) DO UPDATE
			SET archetype = EXCLUDED.archetype,
				origin_type = EXCLUDED.origin_type,
				origin_data = EXCLUDED.origin_data,
				updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, uuid.NewString(), stored.UserID, stored.ArchetypeID, []byte(stored.Archetype),
		string(stored.OriginType), originData).Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert archetype: %w", err)
	}
	return &stored, nil
}

func (r *EntityRepository) ListArchetypes(ctx context.Context, userID string) ([]domain.ImportedArchetype, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, archetype_id, archetype, origin_type, origin_data, created_at, updated_at
		FROM imported_archetypes WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list archetypes: %w", err)
	}
	defer rows.Close()

	archetypes := []domain.ImportedArchetype{}
	for rows.Next() {
		var a domain.ImportedArchetype
		var originType string
		var archetype, originData []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.ArchetypeID, &archetype, &originType, &originData, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Archetype = json.RawMessage(archetype)
		a.OriginType = domain.ArchetypeOrigin(originType)
		if len(originData) > 0 {
			a.OriginData = json.RawMessage(originData)
		}
		archetypes = append(archetypes, a)
	}
	return archetypes, rows.Err()
}

func scanProject(scan func(dest ...any) error) (*domain.Project, error) {
	p := &domain.Project{}
	var status string
	var objects, links, integrations, reqs []byte
	if err := scan(&p.ID, &p.UserID, &p.Name, &p.Industry, &p.UseCase, &status,
		&objects, &links, &integrations, &reqs, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	p.Objects = json.RawMessage(objects)
	p.Links = json.RawMessage(links)
	p.Integrations = json.RawMessage(integrations)
	if err := json.Unmarshal(reqs, &p.AIRequirements); err != nil {
		return nil, fmt.Errorf("decode ai requirements: %w", err)
	}
	return p, nil
}
