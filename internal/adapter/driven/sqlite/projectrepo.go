package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leakguardhq/leakguard/internal/domain/model"
	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProjectStore = (*ProjectRepo)(nil)

// defaultListLimit caps management list queries when no limit is given.
const defaultListLimit = 100

// ProjectRepo is the SQLite implementation of the ProjectStore port interface.
type ProjectRepo struct {
	db *DB
}

// NewProjectRepo creates a new ProjectRepo backed by the given DB.
func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

const projectColumns = `id, name, project_id, policy, project_metadata, created_at, is_public, proxy_slug, supported_llms`

// Create inserts a new project, assigning an id and creation time when unset.
// Returns ErrProjectAlreadyExists on a duplicate short code.
func (r *ProjectRepo) Create(ctx context.Context, project model.Project) (model.Project, error) {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}

	llms, err := encodeStringList(project.SupportedLLMs)
	if err != nil {
		return model.Project{}, fmt.Errorf("create project %s: %w", project.ProjectID, err)
	}

	const query = `INSERT INTO projects (` + projectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Writer.ExecContext(ctx, query,
		project.ID, project.Name, project.ProjectID, project.Policy, project.Metadata,
		formatTime(project.CreatedAt), project.IsPublic, project.ProxySlug, llms,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Project{}, fmt.Errorf("create project %s: %w", project.ProjectID, driven.ErrProjectAlreadyExists)
		}
		return model.Project{}, fmt.Errorf("create project %s: %w", project.ProjectID, err)
	}

	return project, nil
}

// GetByID retrieves a project by its primary id. Returns nil, nil when the
// project does not exist.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	project, err := scanProject(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}

	return project, nil
}

// GetByProxySlug retrieves a publicly exposed project by its proxy slug.
// Projects that are not public are not visible through this lookup.
func (r *ProjectRepo) GetByProxySlug(ctx context.Context, slug string) (*model.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects WHERE proxy_slug = ? AND is_public = 1`

	project, err := scanProject(r.db.Reader.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by slug %s: %w", slug, err)
	}

	return project, nil
}

// List returns projects ordered by creation time, oldest first.
func (r *ProjectRepo) List(ctx context.Context, offset, limit int) ([]model.Project, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	const query = `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at, id LIMIT ? OFFSET ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// Update replaces all mutable fields of an existing project.
// Returns ErrProjectNotFound if no project has the given id.
func (r *ProjectRepo) Update(ctx context.Context, project model.Project) (model.Project, error) {
	llms, err := encodeStringList(project.SupportedLLMs)
	if err != nil {
		return model.Project{}, fmt.Errorf("update project %s: %w", project.ID, err)
	}

	const query = `UPDATE projects
		SET name = ?, project_id = ?, policy = ?, project_metadata = ?, is_public = ?, proxy_slug = ?, supported_llms = ?
		WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		project.Name, project.ProjectID, project.Policy, project.Metadata,
		project.IsPublic, project.ProxySlug, llms, project.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Project{}, fmt.Errorf("update project %s: %w", project.ID, driven.ErrProjectAlreadyExists)
		}
		return model.Project{}, fmt.Errorf("update project %s: %w", project.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return model.Project{}, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return model.Project{}, fmt.Errorf("update project %s: %w", project.ID, driven.ErrProjectNotFound)
	}

	updated, err := r.GetByID(ctx, project.ID)
	if err != nil {
		return model.Project{}, err
	}
	return *updated, nil
}

// Delete removes a project by id. Returns ErrProjectNotFound if absent.
// API keys linked to the project keep working but resolve to the default
// context afterwards (project_id is set NULL by the foreign key).
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM projects WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete project %s: %w", id, driven.ErrProjectNotFound)
	}

	return nil
}

func scanProject(s scanner) (*model.Project, error) {
	var project model.Project
	var createdAt, llms string

	err := s.Scan(
		&project.ID, &project.Name, &project.ProjectID, &project.Policy, &project.Metadata,
		&createdAt, &project.IsPublic, &project.ProxySlug, &llms,
	)
	if err != nil {
		return nil, err
	}

	project.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	project.SupportedLLMs, err = decodeStringList(llms)
	if err != nil {
		return nil, fmt.Errorf("parse supported_llms: %w", err)
	}

	return &project, nil
}
