package sqlite

import (
	"context"
	"fmt"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// Seed populates an empty database with development fixtures: three policies,
// one project, one linked API key, and a sample log entry. It is idempotent:
// a database that already has policies is left untouched. The generated key
// secret is returned so it can be logged once at startup.
func Seed(ctx context.Context, db *DB, keySecret string) (string, error) {
	policies := NewPolicyRepo(db)
	projects := NewProjectRepo(db)
	keys := NewAPIKeyRepo(db)
	logs := NewLogRepo(db)

	existing, err := policies.List(ctx, 0, 1)
	if err != nil {
		return "", fmt.Errorf("seed: check policies: %w", err)
	}
	if len(existing) > 0 {
		return "", nil
	}

	seedPolicies := []model.Policy{
		{
			Name:        "LeakGuard Default Policy",
			PolicyID:    "policy-leakguard-default",
			Guardrails:  []string{"Prompt Defense", "Content Moderation", "Data Leakage Prevention", "Unknown Links"},
			Sensitivity: "L4",
			Projects:    "First Project",
		},
		{
			Name:        "Public-facing Application",
			PolicyID:    "policy-public-facing",
			Guardrails:  []string{"Prompt Defense", "Content Moderation", "Data Leakage Prevention", "Unknown Links"},
			Sensitivity: "L2",
			Projects:    "-",
		},
		{
			Name:        "Internal-facing Application",
			PolicyID:    "policy-internal-facing",
			Guardrails:  []string{"Prompt Defense", "Data Leakage Prevention", "Unknown Links"},
			Sensitivity: "L1",
			Projects:    "-",
		},
	}

	for i := range seedPolicies {
		if seedPolicies[i], err = policies.Create(ctx, seedPolicies[i]); err != nil {
			return "", fmt.Errorf("seed: create policy: %w", err)
		}
	}

	project, err := projects.Create(ctx, model.Project{
		Name:      "First Project",
		ProjectID: "project-3043777887",
		Policy:    seedPolicies[0].Name,
		Metadata:  "-",
	})
	if err != nil {
		return "", fmt.Errorf("seed: create project: %w", err)
	}

	if _, err := keys.Create(ctx, model.APIKey{
		Name:      "First Project Key",
		Key:       keySecret,
		ProjectID: project.ID,
	}); err != nil {
		return "", fmt.Errorf("seed: create api key: %w", err)
	}

	if _, err := logs.Append(ctx, model.LogEntry{
		Project:         project.Name,
		ThreatsDetected: []string{"Prompt Attack"},
		Content:         "User input containing potential prompt injection",
		Policy:          seedPolicies[0].Name,
		RequestID:       "req-12345",
		Latency:         123,
		Region:          "us-east-1",
		Metadata:        "{}",
	}); err != nil {
		return "", fmt.Errorf("seed: create log entry: %w", err)
	}

	return keySecret, nil
}
