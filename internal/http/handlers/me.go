package handlers

import (
	"net/http"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	apperrors "github.com/quickdeploy/auth-svc/internal/http/errors"
	"github.com/quickdeploy/auth-svc/internal/http/helpers"
	"github.com/quickdeploy/auth-svc/internal/http/middlewares"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
)

// Me devuelve el perfil del usuario autenticado, leído de la base (no de
// las claims: el registro pudo haberse actualizado en otro login).
func Me(users repository.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middlewares.SessionFrom(r.Context())
		if sess == nil {
			helpers.WriteError(w, apperrors.ErrUnauthenticated)
			return
		}

		u, err := users.GetByID(r.Context(), sess.UserID)
		if repository.IsNotFound(err) {
			// Sesión válida pero usuario borrado.
			helpers.WriteError(w, apperrors.ErrUserNotFound)
			return
		}
		if err != nil {
			logger.From(r.Context()).Error("me lookup failed", logger.Err(err), logger.UserID(sess.UserID))
			helpers.WriteError(w, err)
			return
		}

		helpers.WriteJSON(w, http.StatusOK, struct {
			User userPayload `json:"user"`
		}{User: toUserPayload(u)})
	}
}
