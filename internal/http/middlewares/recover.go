package middlewares

import (
	"fmt"
	"net/http"

	apperrors "github.com/quickdeploy/auth-svc/internal/http/errors"
	"github.com/quickdeploy/auth-svc/internal/http/helpers"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
)

// WithRecover convierte panics en 500 y deja el stack en los logs.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.Any("panic", rec),
						logger.Path(r.URL.Path),
					)
					helpers.WriteError(w, apperrors.ErrInternal.WithCause(fmt.Errorf("panic: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
