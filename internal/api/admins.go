package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/auth"
)

// AdminsHandler handles the admin roster endpoints.
type AdminsHandler struct {
	Gate   *auth.Gate
	Logger *zap.SugaredLogger
}

type createAdminRequest struct {
	Name      string `json:"name" validate:"required"`
	Matricula string `json:"matricula" validate:"required"`
}

// List handles GET /api/admins.
func (h *AdminsHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.Gate.ListAdmins(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, admins)
}

// Create handles POST /api/admins.
func (h *AdminsHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req createAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	admin, err := h.Gate.AddAdmin(r.Context(), session, req.Name, req.Matricula)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("admin added", "admin_id", admin.ID, "by", session.AdminID)
	jsonResponse(w, http.StatusCreated, admin)
}

// Delete handles DELETE /api/admins/{id}.
func (h *AdminsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Gate.RemoveAdmin(r.Context(), session, id); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("admin removed", "admin_id", id, "by", session.AdminID)
	w.WriteHeader(http.StatusNoContent)
}
