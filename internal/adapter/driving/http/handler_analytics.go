package httphandler

import (
	"net/http"
	"time"
)

// AnalyticsSummary returns the trailing 24-hour traffic summary built from
// stored audit entries.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("failed to build analytics summary", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
