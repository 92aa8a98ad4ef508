package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/quickdeploy/auth-svc/internal/http/helpers"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
)

// Pinger es lo mínimo que un backend debe ofrecer para el readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz: liveness. Siempre 200 mientras el proceso responda.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Readyz: readiness. Verifica las dependencias (store y cache) con un
// timeout corto; cualquier fallo devuelve 503.
func Readyz(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				logger.From(r.Context()).Warn("readiness check failed",
					logger.String("dep", name), logger.Err(err))
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		helpers.WriteJSON(w, status, checks)
	}
}
