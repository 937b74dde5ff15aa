package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// GuardResultResponse is one detector verdict in the trial inspection response.
type GuardResultResponse struct {
	Type            string `json:"type"`
	Confidence      string `json:"confidence"`
	Description     string `json:"description"`
	Detected        bool   `json:"detected"`
	ConfidenceValue int    `json:"confidenceValue"`
}

// IngestResponse is the JSON body returned on a successful ingestion.
type IngestResponse struct {
	EntryID         string   `json:"entry_id"`
	CreatedAt       string   `json:"created_at"`
	RequestID       string   `json:"request_id"`
	ThreatsDetected []string `json:"threats_detected"`
}

// ProjectResponse is the JSON representation of a project.
type ProjectResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ProjectID     string   `json:"project_id"`
	Policy        string   `json:"policy"`
	Metadata      string   `json:"project_metadata"`
	CreatedAt     string   `json:"created_at"`
	IsPublic      bool     `json:"is_public"`
	ProxySlug     string   `json:"proxy_slug,omitempty"`
	SupportedLLMs []string `json:"supported_llms"`
}

// PolicyResponse is the JSON representation of a policy.
type PolicyResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PolicyID    string   `json:"policy_id"`
	Guardrails  []string `json:"guardrails"`
	Sensitivity string   `json:"sensitivity"`
	Projects    string   `json:"projects"`
	IsUserAdded bool     `json:"is_user_added"`
	LastEdited  string   `json:"last_edited"`
}

// APIKeyResponse is the JSON representation of an API key. The secret value
// is included; the management UI shows it once on creation.
type APIKeyResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Key       string  `json:"key"`
	ProjectID string  `json:"project_id,omitempty"`
	CreatedAt string  `json:"created_at"`
	LastUsed  *string `json:"last_used"`
}

// LogEntryResponse is the JSON representation of an audit log entry.
type LogEntryResponse struct {
	ID              string   `json:"id"`
	Timestamp       string   `json:"timestamp"`
	Project         string   `json:"project"`
	ThreatsDetected []string `json:"threats_detected"`
	Content         string   `json:"content"`
	Policy          string   `json:"policy"`
	RequestID       string   `json:"request_id"`
	Latency         int      `json:"latency"`
	Region          string   `json:"region"`
	Metadata        string   `json:"log_entry_metadata"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toGuardResultResponse(v model.Verdict) GuardResultResponse {
	return GuardResultResponse{
		Type:            v.Category,
		Confidence:      v.Confidence,
		Description:     v.Description,
		Detected:        v.Detected,
		ConfidenceValue: v.ConfidenceValue,
	}
}

func toProjectResponse(p model.Project) ProjectResponse {
	llms := p.SupportedLLMs
	if llms == nil {
		llms = []string{}
	}

	return ProjectResponse{
		ID:            p.ID,
		Name:          p.Name,
		ProjectID:     p.ProjectID,
		Policy:        p.Policy,
		Metadata:      p.Metadata,
		CreatedAt:     formatTimestamp(p.CreatedAt),
		IsPublic:      p.IsPublic,
		ProxySlug:     p.ProxySlug,
		SupportedLLMs: llms,
	}
}

func toPolicyResponse(p model.Policy) PolicyResponse {
	guardrails := p.Guardrails
	if guardrails == nil {
		guardrails = []string{}
	}

	return PolicyResponse{
		ID:          p.ID,
		Name:        p.Name,
		PolicyID:    p.PolicyID,
		Guardrails:  guardrails,
		Sensitivity: p.Sensitivity,
		Projects:    p.Projects,
		IsUserAdded: p.IsUserAdded,
		LastEdited:  formatTimestamp(p.LastEdited),
	}
}

func toAPIKeyResponse(k model.APIKey) APIKeyResponse {
	resp := APIKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Key:       k.Key,
		ProjectID: k.ProjectID,
		CreatedAt: formatTimestamp(k.CreatedAt),
	}
	if k.LastUsed != nil {
		lastUsed := formatTimestamp(*k.LastUsed)
		resp.LastUsed = &lastUsed
	}
	return resp
}

func toLogEntryResponse(e model.LogEntry) LogEntryResponse {
	threats := e.ThreatsDetected
	if threats == nil {
		threats = []string{}
	}

	return LogEntryResponse{
		ID:              e.ID,
		Timestamp:       formatTimestamp(e.Timestamp),
		Project:         e.Project,
		ThreatsDetected: threats,
		Content:         e.Content,
		Policy:          e.Policy,
		RequestID:       e.RequestID,
		Latency:         e.Latency,
		Region:          e.Region,
		Metadata:        e.Metadata,
	}
}
