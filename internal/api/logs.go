package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/audit"
)

// LogsHandler serves the audit log.
type LogsHandler struct {
	Auditor *audit.Auditor
	Logger  *zap.SugaredLogger
}

// List handles GET /api/logs?limit=, newest first.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := audit.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	logs, err := h.Auditor.List(r.Context(), limit)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, logs)
}
