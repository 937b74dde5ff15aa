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
var _ driven.PolicyStore = (*PolicyRepo)(nil)

// PolicyRepo is the SQLite implementation of the PolicyStore port interface.
type PolicyRepo struct {
	db *DB
}

// NewPolicyRepo creates a new PolicyRepo backed by the given DB.
func NewPolicyRepo(db *DB) *PolicyRepo {
	return &PolicyRepo{db: db}
}

const policyColumns = `id, name, policy_id, guardrails, sensitivity, projects, is_user_added, last_edited`

// Create inserts a new policy, assigning an id and edit time when unset.
// Returns ErrPolicyAlreadyExists on a duplicate external identifier.
func (r *PolicyRepo) Create(ctx context.Context, policy model.Policy) (model.Policy, error) {
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	if policy.LastEdited.IsZero() {
		policy.LastEdited = time.Now().UTC()
	}

	guardrails, err := encodeStringList(policy.Guardrails)
	if err != nil {
		return model.Policy{}, fmt.Errorf("create policy %s: %w", policy.PolicyID, err)
	}

	const query = `INSERT INTO policies (` + policyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Writer.ExecContext(ctx, query,
		policy.ID, policy.Name, policy.PolicyID, guardrails, policy.Sensitivity,
		policy.Projects, policy.IsUserAdded, formatTime(policy.LastEdited),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Policy{}, fmt.Errorf("create policy %s: %w", policy.PolicyID, driven.ErrPolicyAlreadyExists)
		}
		return model.Policy{}, fmt.Errorf("create policy %s: %w", policy.PolicyID, err)
	}

	return policy, nil
}

// Get retrieves a policy matching either the primary id or the external
// policy identifier. Returns nil, nil when no policy matches.
func (r *PolicyRepo) Get(ctx context.Context, id string) (*model.Policy, error) {
	const query = `SELECT ` + policyColumns + ` FROM policies WHERE id = ? OR policy_id = ?`

	policy, err := scanPolicy(r.db.Reader.QueryRowContext(ctx, query, id, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get policy %s: %w", id, err)
	}

	return policy, nil
}

// List returns policies ordered by name.
func (r *PolicyRepo) List(ctx context.Context, offset, limit int) ([]model.Policy, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	const query = `SELECT ` + policyColumns + ` FROM policies ORDER BY name, id LIMIT ? OFFSET ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var policies []model.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, *policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}

	return policies, nil
}

// Update replaces all mutable fields and bumps the edit time.
// Returns ErrPolicyNotFound if no policy matches the id.
func (r *PolicyRepo) Update(ctx context.Context, policy model.Policy) (model.Policy, error) {
	guardrails, err := encodeStringList(policy.Guardrails)
	if err != nil {
		return model.Policy{}, fmt.Errorf("update policy %s: %w", policy.ID, err)
	}

	policy.LastEdited = time.Now().UTC()

	const query = `UPDATE policies
		SET name = ?, policy_id = ?, guardrails = ?, sensitivity = ?, projects = ?, is_user_added = ?, last_edited = ?
		WHERE id = ? OR policy_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		policy.Name, policy.PolicyID, guardrails, policy.Sensitivity, policy.Projects,
		policy.IsUserAdded, formatTime(policy.LastEdited), policy.ID, policy.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Policy{}, fmt.Errorf("update policy %s: %w", policy.ID, driven.ErrPolicyAlreadyExists)
		}
		return model.Policy{}, fmt.Errorf("update policy %s: %w", policy.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return model.Policy{}, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return model.Policy{}, fmt.Errorf("update policy %s: %w", policy.ID, driven.ErrPolicyNotFound)
	}

	updated, err := r.Get(ctx, policy.ID)
	if err != nil {
		return model.Policy{}, err
	}
	return *updated, nil
}

// Delete removes a policy by id or external identifier.
// Returns ErrPolicyNotFound if absent.
func (r *PolicyRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM policies WHERE id = ? OR policy_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id, id)
	if err != nil {
		return fmt.Errorf("delete policy %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete policy %s: %w", id, driven.ErrPolicyNotFound)
	}

	return nil
}

func scanPolicy(s scanner) (*model.Policy, error) {
	var policy model.Policy
	var guardrails, lastEdited string

	err := s.Scan(
		&policy.ID, &policy.Name, &policy.PolicyID, &guardrails, &policy.Sensitivity,
		&policy.Projects, &policy.IsUserAdded, &lastEdited,
	)
	if err != nil {
		return nil, err
	}

	policy.Guardrails, err = decodeStringList(guardrails)
	if err != nil {
		return nil, fmt.Errorf("parse guardrails: %w", err)
	}

	policy.LastEdited, err = parseTime(lastEdited)
	if err != nil {
		return nil, fmt.Errorf("parse last_edited: %w", err)
	}

	return &policy, nil
}
