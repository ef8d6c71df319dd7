package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/auth"
	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	Gate      *auth.Gate
	JWTSecret string
	Logger    *zap.SugaredLogger
}

type loginRequest struct {
	Name      string `json:"name" validate:"required"`
	Matricula string `json:"matricula" validate:"required"`
}

type loginResponse struct {
	Token        string        `json:"token"`
	Session      model.Session `json:"session"`
	Bootstrapped bool          `json:"bootstrapped"`
}

// Login handles POST /api/auth/login. On an empty roster the first login
// creates the super administrator.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	res, err := h.Gate.Login(r.Context(), req.Name, req.Matricula)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			h.Logger.Warnw("login failed", "matricula", req.Matricula, "remote", r.RemoteAddr)
			jsonError(w, http.StatusUnauthorized, "matrícula não cadastrada")
			return
		}
		writeError(w, h.Logger, err)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, res.Session.AdminID, res.Session.Matricula)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("admin logged in", "admin_id", res.Session.AdminID, "role", res.Session.Role)
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:        token,
		Session:      res.Session,
		Bootstrapped: res.Bootstrapped,
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("admin logged out", "admin_id", claims.AdminID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := GetSession(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	jsonResponse(w, http.StatusOK, session)
}

// Bootstrap handles GET /api/auth/bootstrap, telling the first-run screen
// whether a super administrator still has to be registered.
func (h *AuthHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Gate.IsBootstrapped(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"bootstrapped": ok})
}
