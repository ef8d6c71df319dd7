package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/backup"
)

// BackupHandler handles backup download and restore.
type BackupHandler struct {
	Service  *backup.Service
	MaxBytes int64
	Logger   *zap.SugaredLogger
}

type restoreResponse struct {
	Restored bool           `json:"restored"`
	Reload   bool           `json:"reload"`
	Format   string         `json:"format"`
	Counts   map[string]int `json:"counts"`
}

// Download handles GET /api/backup?format=zip|json.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = backup.FormatZIP
	}

	// Buffer so a failure can still be reported as an error status.
	var buf bytes.Buffer
	if err := h.Service.Write(r.Context(), &buf, format); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	contentType := "application/zip"
	if format == backup.FormatJSON {
		contentType = "application/json"
	}
	name := fmt.Sprintf("sentinela-backup-%s.%s", time.Now().UTC().Format("20060102-150405"), format)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Restore handles POST /api/backup/restore. The archive is either the raw
// body or the "file" part of a multipart form. On success every client must
// reload, since sessions and cached data may no longer be valid.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSession(r.Context())

	// The service rejects oversized archives; this only bounds multipart
	// spooling.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+1<<20)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid upload")
			return
		}
		defer file.Close()
		src = file
	}

	res, err := h.Service.Restore(r.Context(), src)
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			h.Logger.Warnw("restore rejected", "by", session.AdminID, "error", err)
		}
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("restore completed", "by", session.AdminID, "format", res.Format)
	jsonResponse(w, http.StatusOK, restoreResponse{
		Restored: true,
		Reload:   true,
		Format:   res.Format,
		Counts:   res.Counts,
	})
}
