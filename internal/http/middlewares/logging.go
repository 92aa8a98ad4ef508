package middlewares

import (
	"net/http"
	"time"

	"github.com/quickdeploy/auth-svc/internal/observability/logger"
)

// statusRecorder captura el status para poder loguearlo.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// WithLogging loguea cada request con método, ruta, status y latencia.
// También inyecta un logger con el request id en el contexto, para que las
// capas de abajo logueen correlacionado.
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			reqLog := logger.L().With(
				logger.RequestID(RequestIDFrom(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			ctx := logger.ToContext(r.Context(), reqLog)

			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			reqLog.Info("http request",
				logger.Status(rec.status),
				logger.DurationMs(time.Since(start).Milliseconds()),
				logger.Bytes(rec.bytes),
			)
		})
	}
}
