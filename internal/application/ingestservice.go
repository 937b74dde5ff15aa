// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leakguardhq/leakguard/internal/domain/model"
	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// Sentinel errors surfaced by the ingestion pipeline.
var (
	// ErrUnauthenticated indicates a missing, malformed, or unknown API key.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStoreUnavailable indicates the audit log write failed; the request
	// produced no persisted entry.
	ErrStoreUnavailable = errors.New("audit store unavailable")
)

// DetectionMode selects which categories are marked detected during ingestion.
type DetectionMode string

const (
	// DetectionModeEngine runs the inspection engine and carries forward only
	// the categories that actually fired. This is the default and the
	// correct contract.
	DetectionModeEngine DetectionMode = "engine"

	// DetectionModeAlertAll reports every registered category as detected.
	// Retained for parity with a historical deployment; never the default.
	DetectionModeAlertAll DetectionMode = "alert-all"
)

// defaultContext is the project and policy label used when a key has no
// project link.
const defaultContext = "default"

// touchTimeout bounds the detached last-used update so a slow store cannot
// leak goroutines indefinitely.
const touchTimeout = 5 * time.Second

// IngestService orchestrates the ingestion pipeline: authenticate, resolve
// context, extract content, inspect, record, update key usage.
type IngestService struct {
	keys     driven.APIKeyStore
	projects driven.ProjectStore
	logs     driven.LogStore
	engine   *InspectionEngine
	mode     DetectionMode
	region   string
	logger   *slog.Logger
}

// NewIngestService creates an IngestService with all required dependencies.
func NewIngestService(
	keys driven.APIKeyStore,
	projects driven.ProjectStore,
	logs driven.LogStore,
	engine *InspectionEngine,
	mode DetectionMode,
	region string,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		keys:     keys,
		projects: projects,
		logs:     logs,
		engine:   engine,
		mode:     mode,
		region:   region,
		logger:   logger,
	}
}

// Ingest runs one request through the pipeline and returns the persisted
// audit entry. An authentication failure leaves no side effects; a log store
// failure is fatal for the request and wraps ErrStoreUnavailable.
func (s *IngestService) Ingest(ctx context.Context, rawKey string, messages []model.ChatMessage, metadata string) (*model.LogEntry, error) {
	start := time.Now()

	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, fmt.Errorf("empty api key: %w", ErrUnauthenticated)
	}

	key, err := s.keys.GetByKey(ctx, rawKey)
	if err != nil {
		if errors.Is(err, driven.ErrAPIKeyNotFound) {
			return nil, fmt.Errorf("unknown api key: %w", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("resolve api key: %w", err)
	}

	projectName, policyName := s.resolveContext(ctx, key)
	content := ExtractContent(messages)
	threats := s.detectThreats(content)

	entry := model.LogEntry{
		Project:         projectName,
		ThreatsDetected: threats,
		Content:         content,
		Policy:          policyName,
		RequestID:       "req_" + uuid.NewString(),
		Latency:         elapsedMillis(start),
		Region:          s.region,
		Metadata:        metadata,
	}

	stored, err := s.logs.Append(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("record audit entry: %w: %w", ErrStoreUnavailable, err)
	}

	// Usage tracking is advisory: run it detached so a slow or failing
	// update never blocks or fails the response.
	go s.touchLastUsed(key.ID)

	return &stored, nil
}

// resolveContext maps the authenticated key to its project and policy names.
// Keys without a project link, and keys whose project no longer exists,
// resolve to the default context. Total: never fails.
func (s *IngestService) resolveContext(ctx context.Context, key *model.APIKey) (projectName, policyName string) {
	if key.ProjectID == "" {
		return defaultContext, defaultContext
	}

	project, err := s.projects.GetByID(ctx, key.ProjectID)
	if err != nil || project == nil {
		if err != nil {
			s.logger.Warn("project lookup failed, using default context", "project_id", key.ProjectID, "error", err)
		}
		return defaultContext, defaultContext
	}

	return project.Name, project.Policy
}

// ExtractContent selects the text to inspect: the first message with role
// "user" and non-empty content, else the first message overall, else the
// empty string. This choice determines what gets labeled and stored, so it
// must stay deterministic.
func ExtractContent(messages []model.ChatMessage) string {
	for _, m := range messages {
		if m.Role == "user" && m.Content != "" {
			return m.Content
		}
	}
	if len(messages) > 0 {
		return messages[0].Content
	}
	return ""
}

func (s *IngestService) detectThreats(content string) []string {
	if s.mode == DetectionModeAlertAll {
		return s.engine.Categories()
	}

	threats := []string{}
	for _, v := range s.engine.Inspect(content) {
		if v.Detected {
			threats = append(threats, v.Category)
		}
	}
	return threats
}

func (s *IngestService) touchLastUsed(keyID string) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()

	if err := s.keys.TouchLastUsed(ctx, keyID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update key last-used time", "key_id", keyID, "error", err)
	}
}

func elapsedMillis(start time.Time) int {
	ms := int(time.Since(start).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return ms
}
