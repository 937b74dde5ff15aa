package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/leakguardhq/leakguard/internal/domain/model"
	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// ProjectRequest is the JSON body for project create and update.
type ProjectRequest struct {
	Name          string   `json:"name"`
	ProjectID     string   `json:"project_id"`
	Policy        string   `json:"policy"`
	Metadata      string   `json:"project_metadata"`
	IsPublic      bool     `json:"is_public"`
	ProxySlug     string   `json:"proxy_slug"`
	SupportedLLMs []string `json:"supported_llms"`
}

// ProjectProxyRequest is the JSON body for the proxy configuration update.
type ProjectProxyRequest struct {
	IsPublic      bool     `json:"is_public"`
	ProxySlug     string   `json:"proxy_slug"`
	SupportedLLMs []string `json:"supported_llms"`
}

// ListProjects returns projects with optional skip/limit pagination.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)

	projects, err := h.projects.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("failed to list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetProject returns a single project by id.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	project, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(*project))
}

// CreateProject creates a new project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.ProjectID) == "" {
		writeError(w, http.StatusBadRequest, "name and project_id are required")
		return
	}

	project, err := h.projects.Create(r.Context(), model.Project{
		Name:          req.Name,
		ProjectID:     req.ProjectID,
		Policy:        req.Policy,
		Metadata:      req.Metadata,
		IsPublic:      req.IsPublic,
		ProxySlug:     req.ProxySlug,
		SupportedLLMs: req.SupportedLLMs,
	})
	if err != nil {
		if errors.Is(err, driven.ErrProjectAlreadyExists) {
			writeError(w, http.StatusConflict, "project_id already exists")
			return
		}
		h.logger.Error("failed to create project", "project_id", req.ProjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(project))
}

// UpdateProject replaces a project's mutable fields.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := h.projects.Update(r.Context(), model.Project{
		ID:            id,
		Name:          req.Name,
		ProjectID:     req.ProjectID,
		Policy:        req.Policy,
		Metadata:      req.Metadata,
		IsPublic:      req.IsPublic,
		ProxySlug:     req.ProxySlug,
		SupportedLLMs: req.SupportedLLMs,
	})
	if err != nil {
		switch {
		case errors.Is(err, driven.ErrProjectNotFound):
			writeError(w, http.StatusNotFound, "project not found")
		case errors.Is(err, driven.ErrProjectAlreadyExists):
			writeError(w, http.StatusConflict, "project_id already exists")
		default:
			h.logger.Error("failed to update project", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

// UpdateProjectProxy updates only the proxy exposure fields.
func (h *Handler) UpdateProjectProxy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ProjectProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.IsPublic && strings.TrimSpace(req.ProxySlug) == "" {
		writeError(w, http.StatusBadRequest, "proxy_slug is required for a public project")
		return
	}

	current, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if current == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	current.IsPublic = req.IsPublic
	current.ProxySlug = req.ProxySlug
	current.SupportedLLMs = req.SupportedLLMs

	project, err := h.projects.Update(r.Context(), *current)
	if err != nil {
		h.logger.Error("failed to update project proxy config", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

// DeleteProject removes a project by id.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.projects.Delete(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		h.logger.Error("failed to delete project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "project deleted"})
}
