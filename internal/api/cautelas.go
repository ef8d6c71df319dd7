package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/custody"
	"github.com/erazemk/sentinela/internal/model"
)

// CautelasHandler handles custody endpoints.
type CautelasHandler struct {
	Engine *custody.Engine
	Logger *zap.SugaredLogger
}

type cautelaItemRequest struct {
	MaterialID string `json:"material_id" validate:"required"`
	Quantity   int    `json:"quantity"`
}

type issueRequest struct {
	PersonnelID string               `json:"personnel_id" validate:"required"`
	Items       []cautelaItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes       string               `json:"notes"`
}

type returnRequest struct {
	Items []cautelaItemRequest `json:"items" validate:"dive"`
}

func toItems(reqs []cautelaItemRequest) []model.CautelaItem {
	if len(reqs) == 0 {
		return nil
	}
	items := make([]model.CautelaItem, len(reqs))
	for i, it := range reqs {
		items[i] = model.CautelaItem{MaterialID: it.MaterialID, Quantity: it.Quantity}
	}
	return items
}

// List handles GET /api/cautelas?status=&personnel_id=&material_id=.
func (h *CautelasHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cautelas, err := h.Engine.List(r.Context(), custody.Filter{
		Status:      q.Get("status"),
		PersonnelID: q.Get("personnel_id"),
		MaterialID:  q.Get("material_id"),
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, cautelas)
}

// Issue handles POST /api/cautelas.
func (h *CautelasHandler) Issue(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req issueRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	c, err := h.Engine.Issue(r.Context(), session, req.PersonnelID, toItems(req.Items), req.Notes)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("cautela issued", "cautela_id", c.ID, "personnel_id", c.PersonnelID, "lines", len(c.Items))
	jsonResponse(w, http.StatusCreated, c)
}

// Get handles GET /api/cautelas/{id}.
func (h *CautelasHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Return handles POST /api/cautelas/{id}/return. An empty body or item list
// returns everything outstanding.
func (h *CautelasHandler) Return(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req returnRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, err)
		return
	}

	res, err := h.Engine.Return(r.Context(), session, chi.URLParam(r, "id"), toItems(req.Items))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	if res.Split != nil {
		h.Logger.Infow("cautela partially returned", "cautela_id", res.Returned.ID, "split_id", res.Split.ID)
	} else {
		h.Logger.Infow("cautela returned", "cautela_id", res.Returned.ID)
	}
	jsonResponse(w, http.StatusOK, res)
}
