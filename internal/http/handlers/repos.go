package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	apperrors "github.com/quickdeploy/auth-svc/internal/http/errors"
	"github.com/quickdeploy/auth-svc/internal/http/helpers"
	"github.com/quickdeploy/auth-svc/internal/http/middlewares"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
)

// RepoLister lista los repositorios del dueño del access token.
type RepoLister interface {
	ListRepos(ctx context.Context, accessToken string) (json.RawMessage, error)
}

// Repos hace pass-through a GitHub con el token GUARDADO del usuario, no
// con la sesión. El JSON upstream se devuelve tal cual, sin reformatear.
func Repos(users repository.UserRepository, gh RepoLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middlewares.SessionFrom(r.Context())
		if sess == nil {
			helpers.WriteError(w, apperrors.ErrUnauthenticated)
			return
		}

		u, err := users.GetByID(r.Context(), sess.UserID)
		if err != nil || u.GitHubToken == "" {
			// Usuario sin credencial upstream utilizable: mismo 401 uniforme.
			helpers.WriteError(w, apperrors.ErrUnauthenticated)
			return
		}

		items, err := gh.ListRepos(r.Context(), u.GitHubToken)
		if err != nil {
			logger.From(r.Context()).Warn("repo proxy failed", logger.Err(err), logger.UserID(u.ID))
			helpers.WriteError(w, err)
			return
		}

		helpers.WriteJSON(w, http.StatusOK, struct {
			Items json.RawMessage `json:"items"`
		}{Items: items})
	}
}
