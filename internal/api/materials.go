package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/custody"
	"github.com/erazemk/sentinela/internal/inventory"
)

// MaterialsHandler handles material endpoints.
type MaterialsHandler struct {
	Ledger *inventory.Ledger
	Engine *custody.Engine
	Logger *zap.SugaredLogger
}

type createMaterialRequest struct {
	Name          string `json:"name" validate:"required"`
	Category      string `json:"category"`
	TotalQuantity int    `json:"total_quantity" validate:"gte=0"`
}

type updateMaterialRequest struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category"`
}

type adjustTotalRequest struct {
	TotalQuantity *int `json:"total_quantity" validate:"required,gte=0"`
}

type materialResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	Outstanding       int    `json:"outstanding"`
}

// List handles GET /api/materials?category=.
func (h *MaterialsHandler) List(w http.ResponseWriter, r *http.Request) {
	materials, err := h.Ledger.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, materials)
}

// Categories handles GET /api/materials/categories.
func (h *MaterialsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Ledger.Categories(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Create handles POST /api/materials.
func (h *MaterialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req createMaterialRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	m, err := h.Ledger.Create(r.Context(), session, req.Name, req.Category, req.TotalQuantity)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("material created", "material_id", m.ID, "total", m.TotalQuantity)
	jsonResponse(w, http.StatusCreated, m)
}

// Get handles GET /api/materials/{id}, including the quantity out on open
// cautelas.
func (h *MaterialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.Ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	outstanding, err := h.Engine.Outstanding(r.Context(), m.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	jsonResponse(w, http.StatusOK, materialResponse{
		ID:                m.ID,
		Name:              m.Name,
		Category:          m.Category,
		TotalQuantity:     m.TotalQuantity,
		AvailableQuantity: m.AvailableQuantity,
		Outstanding:       outstanding,
	})
}

// Update handles PUT /api/materials/{id}.
func (h *MaterialsHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req updateMaterialRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	m, err := h.Ledger.Update(r.Context(), session, chi.URLParam(r, "id"), req.Name, req.Category)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, m)
}

// AdjustTotal handles PUT /api/materials/{id}/total.
func (h *MaterialsHandler) AdjustTotal(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req adjustTotalRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	m, err := h.Ledger.AdjustTotal(r.Context(), session, chi.URLParam(r, "id"), *req.TotalQuantity)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("stock adjusted", "material_id", m.ID, "total", m.TotalQuantity, "available", m.AvailableQuantity)
	jsonResponse(w, http.StatusOK, m)
}

// Delete handles DELETE /api/materials/{id}.
func (h *MaterialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Ledger.Delete(r.Context(), session, id); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("material deleted", "material_id", id)
	w.WriteHeader(http.StatusNoContent)
}
