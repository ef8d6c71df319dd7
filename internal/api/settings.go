package api

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/imaging"
	"github.com/erazemk/sentinela/internal/settings"
)

// SettingsHandler handles institution settings.
type SettingsHandler struct {
	Service *settings.Service
	Logger  *zap.SugaredLogger
}

type institutionRequest struct {
	InstitutionName string `json:"institution_name" validate:"required"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.Get(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// UpdateInstitution handles PUT /api/settings.
func (h *SettingsHandler) UpdateInstitution(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req institutionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	s, err := h.Service.UpdateInstitution(r.Context(), session, req.InstitutionName)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// SetLogo handles PUT /api/settings/logo. The image is either the raw body
// or the "file" part of a multipart form.
func (h *SettingsHandler) SetLogo(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	// Headroom for multipart framing; imaging enforces the image limit itself.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxInputBytes+1<<20)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(imaging.MaxInputBytes); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid upload")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			jsonError(w, http.StatusBadRequest, "missing file")
			return
		}
		defer file.Close()
		src = file
	}

	s, err := h.Service.SetLogo(r.Context(), session, src)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("institution logo updated", "by", session.AdminID)
	jsonResponse(w, http.StatusOK, s)
}

// ClearLogo handles DELETE /api/settings/logo.
func (h *SettingsHandler) ClearLogo(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	s, err := h.Service.ClearLogo(r.Context(), session)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// SetTheme handles PUT /api/settings/theme.
func (h *SettingsHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	var req themeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	s, err := h.Service.SetTheme(r.Context(), session, req.Theme)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}
