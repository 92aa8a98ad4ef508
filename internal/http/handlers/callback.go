package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/quickdeploy/auth-svc/internal/http/helpers"
	"github.com/quickdeploy/auth-svc/internal/http/metrics"
	svcauth "github.com/quickdeploy/auth-svc/internal/http/services/auth"
	githuboauth "github.com/quickdeploy/auth-svc/internal/oauth/github"
)

type callbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

type callbackResponse struct {
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      userPayload `json:"user"`
}

// Callback completa el login: valida state, canjea el code y emite la
// sesión. El code es de un solo uso; ante cualquier fallo el cliente debe
// reiniciar el flujo desde cero.
func Callback(svc *svcauth.CallbackService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req callbackRequest
		if !helpers.ReadJSON(w, r, &req) {
			return
		}

		res, err := svc.Callback(r.Context(), svcauth.CallbackRequest{
			Code:  req.Code,
			State: req.State,
		})
		if err != nil {
			metrics.ObserveLogin(loginResultLabel(err))
			helpers.WriteError(w, err)
			return
		}

		metrics.ObserveLogin("ok")
		helpers.WriteJSON(w, http.StatusOK, callbackResponse{
			Message:   "login ok",
			Token:     res.Token,
			ExpiresAt: res.ExpiresAt,
			User:      toUserPayload(res.User),
		})
	}
}

func loginResultLabel(err error) string {
	switch {
	case errors.Is(err, svcauth.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, githuboauth.ErrMissingCode):
		return "missing_code"
	case errors.Is(err, githuboauth.ErrUpstreamToken):
		return "upstream_token_error"
	case errors.Is(err, githuboauth.ErrUpstreamProfile), errors.Is(err, githuboauth.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal_error"
	}
}
