package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leakguardhq/leakguard/internal/application"
	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// GuardRequest is the JSON body for the trial inspection endpoint.
type GuardRequest struct {
	Prompt string `json:"prompt"`
}

// IngestMessage is one role-tagged message in an ingestion request.
type IngestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IngestRequest is the JSON body for the ingestion endpoint.
type IngestRequest struct {
	Messages []IngestMessage `json:"messages"`
	Metadata string          `json:"metadata,omitempty"`
}

// RunGuard inspects ad hoc text and returns the full ordered verdict list.
// Unauthenticated: the playground uses it for evaluation.
func (h *Handler) RunGuard(w http.ResponseWriter, r *http.Request) {
	var req GuardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	verdicts := h.engine.Inspect(req.Prompt)

	resp := make([]GuardResultResponse, 0, len(verdicts))
	for _, v := range verdicts {
		resp = append(resp, toGuardResultResponse(v))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Ingest runs the authenticated ingestion pipeline: the bearer API key is
// resolved to its project context, the submitted messages are inspected, and
// one audit entry is recorded.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	rawKey := bearerToken(r)
	if rawKey == "" {
		writeError(w, http.StatusUnauthorized, "missing api key")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	messages := make([]model.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, model.ChatMessage{Role: m.Role, Content: m.Content})
	}

	entry, err := h.ingestSvc.Ingest(r.Context(), rawKey, messages, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "invalid api key")
		case errors.Is(err, application.ErrStoreUnavailable):
			h.logger.Error("audit store unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "audit store unavailable")
		default:
			h.logger.Error("ingestion failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	threats := entry.ThreatsDetected
	if threats == nil {
		threats = []string{}
	}

	writeJSON(w, http.StatusCreated, IngestResponse{
		EntryID:         entry.ID,
		CreatedAt:       formatTimestamp(entry.Timestamp),
		RequestID:       entry.RequestID,
		ThreatsDetected: threats,
	})
}
