package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/personnel"
)

// PersonnelHandler handles personnel endpoints.
type PersonnelHandler struct {
	Registry *personnel.Registry
	Logger   *zap.SugaredLogger
}

type personnelRequest struct {
	Name               string `json:"name" validate:"required"`
	RegistrationNumber string `json:"registration_number" validate:"required"`
	Rank               string `json:"rank"`
}

// List handles GET /api/personnel.
func (h *PersonnelHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.Registry.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, people)
}

// Create handles POST /api/personnel.
func (h *PersonnelHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req personnelRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	p, err := h.Registry.Create(r.Context(), session, req.Name, req.RegistrationNumber, req.Rank)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("personnel created", "personnel_id", p.ID)
	jsonResponse(w, http.StatusCreated, p)
}

// Get handles GET /api/personnel/{id}.
func (h *PersonnelHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Update handles PUT /api/personnel/{id}.
func (h *PersonnelHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req personnelRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	p, err := h.Registry.Update(r.Context(), session, chi.URLParam(r, "id"), req.Name, req.RegistrationNumber, req.Rank)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Delete handles DELETE /api/personnel/{id}.
func (h *PersonnelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Registry.Delete(r.Context(), session, id); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("personnel deleted", "personnel_id", id)
	w.WriteHeader(http.StatusNoContent)
}
