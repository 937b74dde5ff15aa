package httphandler

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// ProxyChatRequest is the JSON body for the public demo chat endpoint.
type ProxyChatRequest struct {
	Model    string          `json:"model"`
	Messages []IngestMessage `json:"messages"`
}

// GetPublicProxy returns the proxy configuration of a public project by slug.
func (h *Handler) GetPublicProxy(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	project, err := h.projects.GetByProxySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get proxy project", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(*project))
}

// ProxyChat generates a demo completion for a public project's proxy. The
// selected model must be in the project's supported list.
func (h *Handler) ProxyChat(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	project, err := h.projects.GetByProxySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get proxy project", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}

	var req ProxyChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	modelName := strings.TrimSpace(req.Model)
	if modelName == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}
	if !slices.Contains(project.SupportedLLMs, modelName) {
		writeError(w, http.StatusBadRequest, "model not supported by this proxy")
		return
	}

	messages := make([]model.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, model.ChatMessage{Role: m.Role, Content: m.Content})
	}

	writeJSON(w, http.StatusOK, h.chat.Reply(modelName, messages))
}
