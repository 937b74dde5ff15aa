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
var _ driven.APIKeyStore = (*APIKeyRepo)(nil)

// APIKeyRepo is the SQLite implementation of the APIKeyStore port interface.
type APIKeyRepo struct {
	db *DB
}

// NewAPIKeyRepo creates a new APIKeyRepo backed by the given DB.
func NewAPIKeyRepo(db *DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

const apiKeyColumns = `id, name, key, project_id, created_at, last_used`

// Create inserts a new API key, assigning an id and creation time when unset.
// The key secret must already be set by the caller; secrets are unique.
func (r *APIKeyRepo) Create(ctx context.Context, key model.APIKey) (model.APIKey, error) {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	var projectID sql.NullString
	if key.ProjectID != "" {
		projectID = sql.NullString{String: key.ProjectID, Valid: true}
	}

	const query = `INSERT INTO api_keys (` + apiKeyColumns + `) VALUES (?, ?, ?, ?, ?, NULL)`
	_, err := r.db.Writer.ExecContext(ctx, query,
		key.ID, key.Name, key.Key, projectID, formatTime(key.CreatedAt),
	)
	if err != nil {
		return model.APIKey{}, fmt.Errorf("create api key %s: %w", key.Name, err)
	}

	key.LastUsed = nil
	return key, nil
}

// GetByKey resolves an API key by exact match on its secret value.
// Returns ErrAPIKeyNotFound on a miss.
func (r *APIKeyRepo) GetByKey(ctx context.Context, secret string) (*model.APIKey, error) {
	const query = `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key = ?`

	key, err := scanAPIKey(r.db.Reader.QueryRowContext(ctx, query, secret))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}

	return key, nil
}

// List returns API keys ordered by creation time, oldest first.
func (r *APIKeyRepo) List(ctx context.Context, offset, limit int) ([]model.APIKey, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	const query = `SELECT ` + apiKeyColumns + ` FROM api_keys ORDER BY created_at, id LIMIT ? OFFSET ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, *key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}

	return keys, nil
}

// Delete removes an API key by id. Returns ErrAPIKeyNotFound if absent.
func (r *APIKeyRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM api_keys WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete api key %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete api key %s: %w", id, driven.ErrAPIKeyNotFound)
	}

	return nil
}

// TouchLastUsed sets the key's last-used time. A single-statement write;
// callers treat failure as advisory.
func (r *APIKeyRepo) TouchLastUsed(ctx context.Context, id string, t time.Time) error {
	const query = `UPDATE api_keys SET last_used = ? WHERE id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, formatTime(t), id)
	if err != nil {
		return fmt.Errorf("touch api key %s: %w", id, err)
	}
	return nil
}

func scanAPIKey(s scanner) (*model.APIKey, error) {
	var key model.APIKey
	var projectID, lastUsed sql.NullString
	var createdAt string

	err := s.Scan(&key.ID, &key.Name, &key.Key, &projectID, &createdAt, &lastUsed)
	if err != nil {
		return nil, err
	}

	if projectID.Valid {
		key.ProjectID = projectID.String
	}

	key.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	if lastUsed.Valid {
		t, err := parseTime(lastUsed.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_used: %w", err)
		}
		key.LastUsed = &t
	}

	return &key, nil
}
