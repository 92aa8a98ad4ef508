// Package http arma el router y el servidor del servicio.
package http

import (
	"net/http"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	"github.com/quickdeploy/auth-svc/internal/http/handlers"
	"github.com/quickdeploy/auth-svc/internal/http/metrics"
	"github.com/quickdeploy/auth-svc/internal/http/middlewares"
	svcauth "github.com/quickdeploy/auth-svc/internal/http/services/auth"
	jwtx "github.com/quickdeploy/auth-svc/internal/jwt"
)

// RouterDeps son las dependencias ya construidas que el router cablea.
type RouterDeps struct {
	States   *svcauth.StateService
	Callback *svcauth.CallbackService
	Users    repository.UserRepository
	Repos    handlers.RepoLister
	Issuer   *jwtx.Issuer
	Ready    map[string]handlers.Pinger
}

// NewMux registra todas las rutas. Las rutas /v1/* son las canónicas; los
// alias cortos (/auth/callback, /auth/me, /auth/resource) se mantienen por
// compatibilidad con la SPA original.
func NewMux(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()

	requireSession := middlewares.RequireSession(d.Issuer)

	loginURL := handlers.LoginURL(d.States)
	callback := handlers.Callback(d.Callback)
	me := requireSession(handlers.Me(d.Users))
	repos := requireSession(handlers.Repos(d.Users, d.Repos))

	// Operacionales.
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", handlers.Readyz(d.Ready))
	mux.Handle("GET /metrics", metrics.Handler())

	// Flujo de login.
	mux.Handle("GET /v1/auth/github/url", metrics.Instrument("/v1/auth/github/url", loginURL))
	mux.Handle("POST /v1/auth/github/callback", metrics.Instrument("/v1/auth/github/callback", callback))
	mux.Handle("POST /auth/callback", metrics.Instrument("/auth/callback", callback))

	// Rutas autenticadas.
	mux.Handle("GET /v1/me", metrics.Instrument("/v1/me", me))
	mux.Handle("GET /auth/me", metrics.Instrument("/auth/me", me))
	mux.Handle("GET /v1/github/repos", metrics.Instrument("/v1/github/repos", repos))
	mux.Handle("GET /auth/resource", metrics.Instrument("/auth/resource", repos))

	return mux
}
