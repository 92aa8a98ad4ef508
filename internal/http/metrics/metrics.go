// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Métricas del servicio. Los paths se etiquetan por patrón registrado, no
// por URL cruda, para mantener la cardinalidad acotada.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authsvc",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total de requests HTTP atendidas.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "authsvc",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latencia de requests HTTP.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authsvc",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Resultados del flujo de login (ok, invalid_state, upstream_error, ...).",
	}, []string{"result"})
)

// ObserveLogin registra el resultado de un intento de login.
func ObserveLogin(result string) { loginsTotal.WithLabelValues(result).Inc() }

// Handler expone /metrics en formato Prometheus.
func Handler() http.Handler { return promhttp.Handler() }

type metricsRecorder struct {
	http.ResponseWriter
	status int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *metricsRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Instrument instrumenta un handler bajo el patrón de ruta dado.
func Instrument(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metricsRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
