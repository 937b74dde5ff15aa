// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/leakguardhq/leakguard/internal/application"
	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// Handler serves the guard, management, and proxy endpoints.
type Handler struct {
	projects  driven.ProjectStore
	policies  driven.PolicyStore
	keys      driven.APIKeyStore
	logs      driven.LogStore
	engine    *application.InspectionEngine
	ingestSvc *application.IngestService
	keySvc    *application.APIKeyService
	analytics *application.AnalyticsService
	chat      *application.ChatService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	projects driven.ProjectStore,
	policies driven.PolicyStore,
	keys driven.APIKeyStore,
	logs driven.LogStore,
	engine *application.InspectionEngine,
	ingestSvc *application.IngestService,
	keySvc *application.APIKeyService,
	analytics *application.AnalyticsService,
	chat *application.ChatService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		projects:  projects,
		policies:  policies,
		keys:      keys,
		logs:      logs,
		engine:    engine,
		ingestSvc: ingestSvc,
		keySvc:    keySvc,
		analytics: analytics,
		chat:      chat,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with CORS, logging, and recovery middleware. Management routes are guarded
// by the session verifier unless bypass is set.
func NewServeMux(h *Handler, verifier TokenVerifier, bypass bool, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Guard endpoints authenticate themselves (API key) or are public.
	mux.HandleFunc("POST /api/guard/run", h.RunGuard)
	mux.HandleFunc("POST /api/guard/ingest", h.Ingest)
	mux.HandleFunc("GET /api/health", h.Health)

	// Public demo proxy.
	mux.HandleFunc("GET /api/proxy/{slug}", h.GetPublicProxy)
	mux.HandleFunc("POST /api/proxy/{slug}/chat", h.ProxyChat)

	// Management API, session-token protected.
	mgmt := http.NewServeMux()
	mgmt.HandleFunc("GET /api/projects", h.ListProjects)
	mgmt.HandleFunc("POST /api/projects", h.CreateProject)
	mgmt.HandleFunc("GET /api/projects/{id}", h.GetProject)
	mgmt.HandleFunc("PUT /api/projects/{id}", h.UpdateProject)
	mgmt.HandleFunc("DELETE /api/projects/{id}", h.DeleteProject)
	mgmt.HandleFunc("PUT /api/projects/{id}/proxy", h.UpdateProjectProxy)
	mgmt.HandleFunc("GET /api/policies", h.ListPolicies)
	mgmt.HandleFunc("POST /api/policies", h.CreatePolicy)
	mgmt.HandleFunc("GET /api/policies/{id}", h.GetPolicy)
	mgmt.HandleFunc("PUT /api/policies/{id}", h.UpdatePolicy)
	mgmt.HandleFunc("DELETE /api/policies/{id}", h.DeletePolicy)
	mgmt.HandleFunc("GET /api/api-keys", h.ListAPIKeys)
	mgmt.HandleFunc("POST /api/api-keys", h.CreateAPIKey)
	mgmt.HandleFunc("DELETE /api/api-keys/{id}", h.DeleteAPIKey)
	mgmt.HandleFunc("GET /api/logs", h.ListLogs)
	mgmt.HandleFunc("POST /api/logs", h.CreateLog)
	mgmt.HandleFunc("GET /api/analytics/summary", h.AnalyticsSummary)

	guarded := sessionAuthMiddleware(verifier, bypass, logger, mgmt)
	for _, prefix := range []string{
		"/api/projects", "/api/projects/",
		"/api/policies", "/api/policies/",
		"/api/api-keys", "/api/api-keys/",
		"/api/logs",
		"/api/analytics/",
	} {
		mux.Handle(prefix, guarded)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = corsMiddleware(wrapped)

	return wrapped
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
