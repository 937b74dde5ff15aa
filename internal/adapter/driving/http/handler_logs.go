package httphandler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// LogEntryRequest is the JSON body for the management-side log append.
type LogEntryRequest struct {
	Project         string   `json:"project"`
	ThreatsDetected []string `json:"threats_detected"`
	Content         string   `json:"content"`
	Policy          string   `json:"policy"`
	RequestID       string   `json:"request_id"`
	Latency         int      `json:"latency"`
	Region          string   `json:"region"`
	Metadata        string   `json:"log_entry_metadata"`
}

// ListLogs returns audit entries, newest first, with skip/limit pagination.
// The limit is clamped by the store regardless of the requested value.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)

	entries, err := h.logs.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("failed to list log entries", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]LogEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toLogEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateLog appends one entry on behalf of the management layer.
func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req LogEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Latency < 0 {
		writeError(w, http.StatusBadRequest, "latency must be non-negative")
		return
	}

	entry, err := h.logs.Append(r.Context(), model.LogEntry{
		Project:         req.Project,
		ThreatsDetected: req.ThreatsDetected,
		Content:         req.Content,
		Policy:          req.Policy,
		RequestID:       req.RequestID,
		Latency:         req.Latency,
		Region:          req.Region,
		Metadata:        req.Metadata,
	})
	if err != nil {
		h.logger.Error("failed to append log entry", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toLogEntryResponse(entry))
}

// pageParams parses skip/limit query parameters. Missing or malformed values
// fall back to zero, letting the store apply its defaults and clamps.
func pageParams(r *http.Request) (offset, limit int) {
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return offset, limit
}
