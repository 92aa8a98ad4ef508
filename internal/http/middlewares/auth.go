package middlewares

import (
	"net/http"
	"strings"

	apperrors "github.com/quickdeploy/auth-svc/internal/http/errors"
	"github.com/quickdeploy/auth-svc/internal/http/helpers"
	jwtx "github.com/quickdeploy/auth-svc/internal/jwt"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
)

// RequireSession exige un Bearer token de sesión válido.
//
// La respuesta es uniforme: ausente, malformado, firma inválida o expirado
// devuelven el mismo 401. El motivo real solo va a los logs.
func RequireSession(issuer *jwtx.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w, r, "missing bearer token")
				return
			}
			claims, err := issuer.ParseSession(raw)
			if err != nil {
				logger.From(r.Context()).Warn("session rejected", logger.Err(err))
				unauthorized(w, r, "invalid session")
				return
			}
			ctx := WithSession(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	logger.From(r.Context()).Debug("unauthenticated request",
		logger.Path(r.URL.Path), logger.String("reason", reason))
	w.Header().Set("WWW-Authenticate", `Bearer realm="auth-svc"`)
	helpers.WriteError(w, apperrors.ErrUnauthenticated)
}
