package handlers

import (
	"net/http"

	"github.com/quickdeploy/auth-svc/internal/http/helpers"
	svcauth "github.com/quickdeploy/auth-svc/internal/http/services/auth"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
)

// LoginURL arranca el flujo: genera el state y devuelve la URL de
// autorización de GitHub para que la SPA redirija.
func LoginURL(states *svcauth.StateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, state, err := states.Start(r.Context())
		if err != nil {
			logger.From(r.Context()).Error("login url start failed", logger.Err(err))
			helpers.WriteError(w, err)
			return
		}
		helpers.WriteJSON(w, http.StatusOK, struct {
			URL   string `json:"url"`
			State string `json:"state"`
		}{URL: url, State: state})
	}
}
