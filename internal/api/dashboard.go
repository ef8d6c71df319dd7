package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/custody"
	"github.com/erazemk/sentinela/internal/inventory"
	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/personnel"
)

// DashboardHandler serves summary counts and the health check.
type DashboardHandler struct {
	DB       *sql.DB
	Ledger   *inventory.Ledger
	Registry *personnel.Registry
	Engine   *custody.Engine
	Logger   *zap.SugaredLogger
}

type dashboardResponse struct {
	Materials      int `json:"materials"`
	UnitsTotal     int `json:"units_total"`
	UnitsAvailable int `json:"units_available"`
	Personnel      int `json:"personnel"`
	OpenCautelas   int `json:"open_cautelas"`
}

type healthResponse struct {
	Status        string                `json:"status"`
	Discrepancies []custody.Discrepancy `json:"discrepancies,omitempty"`
}

// Dashboard handles GET /api/dashboard.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	materials, err := h.Ledger.List(ctx, "")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	people, err := h.Registry.List(ctx)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	open, err := h.Engine.List(ctx, custody.Filter{Status: model.CautelaStatusOpen})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	resp := dashboardResponse{
		Materials:    len(materials),
		Personnel:    len(people),
		OpenCautelas: len(open),
	}
	for _, m := range materials {
		resp.UnitsTotal += m.TotalQuantity
		resp.UnitsAvailable += m.AvailableQuantity
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Health handles GET /api/health. It fails when the database is unreachable
// or the ledger disagrees with the open cautelas.
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		h.Logger.Errorw("health check: database unreachable", "error", err)
		jsonResponse(w, http.StatusServiceUnavailable, healthResponse{Status: "database unavailable"})
		return
	}

	discrepancies, err := h.Engine.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if len(discrepancies) > 0 {
		h.Logger.Errorw("health check: ledger drift", "materials", len(discrepancies))
		jsonResponse(w, http.StatusServiceUnavailable, healthResponse{Status: "inconsistent", Discrepancies: discrepancies})
		return
	}
	jsonResponse(w, http.StatusOK, healthResponse{Status: "ok"})
}
