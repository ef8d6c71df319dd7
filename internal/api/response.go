package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/backup"
	"github.com/erazemk/sentinela/internal/model"
)

// validate checks request payloads against their `validate` struct tags.
var validate = validator.New()

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		// The status line is already out; a failed encode can only be dropped.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]any{"error": message})
}

// decodeJSON decodes a JSON request body into target and validates it.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return err
	}
	return validate.Struct(target)
}

// badRequest answers a payload that failed decodeJSON.
func badRequest(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid request",
			"fields": fields,
		})
		return
	}
	jsonError(w, http.StatusBadRequest, "invalid request body")
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInsufficientStock), errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrInvalidOperation),
		errors.Is(err, model.ErrRestoreValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrAccessDenied):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status for err's kind. Server errors are logged
// and their details withheld.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		if errors.Is(err, model.ErrInventoryCorruption) {
			logger.Errorw("inventory corruption", "error", err)
			jsonError(w, status, "inventory corruption")
			return
		}
		logger.Errorw("internal error", "error", err)
		jsonError(w, status, "internal error")
		return
	}

	body := map[string]any{"error": err.Error()}

	var se *model.StockError
	if errors.As(err, &se) {
		body["material_id"] = se.MaterialID
		body["material_name"] = se.MaterialName
		body["available"] = se.Available
		body["requested"] = se.Requested
	}
	var ve *backup.ValidationError
	if errors.As(err, &ve) {
		body["problems"] = ve.Problems
	}

	jsonResponse(w, status, body)
}
