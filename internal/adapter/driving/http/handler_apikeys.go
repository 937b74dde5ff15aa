package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// APIKeyRequest is the JSON body for API key creation. The secret is always
// generated server-side; only a display name and optional project link are
// accepted.
type APIKeyRequest struct {
	Name      string `json:"name"`
	ProjectID string `json:"project_id,omitempty"`
}

// ListAPIKeys returns issued keys with optional skip/limit pagination.
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)

	keys, err := h.keys.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("failed to list api keys", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, toAPIKeyResponse(k))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateAPIKey issues a new key with a freshly generated secret.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req APIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	key, err := h.keySvc.Issue(r.Context(), req.Name, req.ProjectID)
	if err != nil {
		h.logger.Error("failed to issue api key", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toAPIKeyResponse(key))
}

// DeleteAPIKey revokes a key by id.
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.keys.Delete(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrAPIKeyNotFound) {
			writeError(w, http.StatusNotFound, "api key not found")
			return
		}
		h.logger.Error("failed to delete api key", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "api key deleted"})
}
