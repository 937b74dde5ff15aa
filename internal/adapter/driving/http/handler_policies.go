package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/leakguardhq/leakguard/internal/domain/model"
	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// PolicyRequest is the JSON body for policy create and update.
type PolicyRequest struct {
	Name        string   `json:"name"`
	PolicyID    string   `json:"policy_id"`
	Guardrails  []string `json:"guardrails"`
	Sensitivity string   `json:"sensitivity"`
	Projects    string   `json:"projects"`
}

// ListPolicies returns policies with optional skip/limit pagination.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)

	policies, err := h.policies.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("failed to list policies", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PolicyResponse, 0, len(policies))
	for _, p := range policies {
		resp = append(resp, toPolicyResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPolicy returns a single policy by id or external identifier.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	policy, err := h.policies.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get policy", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if policy == nil {
		writeError(w, http.StatusNotFound, "policy not found")
		return
	}

	writeJSON(w, http.StatusOK, toPolicyResponse(*policy))
}

// CreatePolicy creates a new user-added policy.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.PolicyID) == "" {
		writeError(w, http.StatusBadRequest, "name and policy_id are required")
		return
	}

	policy, err := h.policies.Create(r.Context(), model.Policy{
		Name:        req.Name,
		PolicyID:    req.PolicyID,
		Guardrails:  req.Guardrails,
		Sensitivity: req.Sensitivity,
		Projects:    req.Projects,
		IsUserAdded: true,
	})
	if err != nil {
		if errors.Is(err, driven.ErrPolicyAlreadyExists) {
			writeError(w, http.StatusConflict, "policy_id already exists")
			return
		}
		h.logger.Error("failed to create policy", "policy_id", req.PolicyID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toPolicyResponse(policy))
}

// UpdatePolicy replaces a policy's mutable fields.
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	policy, err := h.policies.Update(r.Context(), model.Policy{
		ID:          id,
		Name:        req.Name,
		PolicyID:    req.PolicyID,
		Guardrails:  req.Guardrails,
		Sensitivity: req.Sensitivity,
		Projects:    req.Projects,
		IsUserAdded: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, driven.ErrPolicyNotFound):
			writeError(w, http.StatusNotFound, "policy not found")
		case errors.Is(err, driven.ErrPolicyAlreadyExists):
			writeError(w, http.StatusConflict, "policy_id already exists")
		default:
			h.logger.Error("failed to update policy", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

// DeletePolicy removes a policy by id or external identifier.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.policies.Delete(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrPolicyNotFound) {
			writeError(w, http.StatusNotFound, "policy not found")
			return
		}
		h.logger.Error("failed to delete policy", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "policy deleted"})
}
