// auth-svc: servicio de login con GitHub para QuickDeploy.
//
// Flujo: la SPA pide la URL de autorización, GitHub redirige con el code,
// la SPA lo postea a /auth/callback y recibe un JWT de sesión de 1h.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/quickdeploy/auth-svc/internal/cache"
	"github.com/quickdeploy/auth-svc/internal/config"
	httpx "github.com/quickdeploy/auth-svc/internal/http"
	"github.com/quickdeploy/auth-svc/internal/http/handlers"
	"github.com/quickdeploy/auth-svc/internal/http/middlewares"
	svcauth "github.com/quickdeploy/auth-svc/internal/http/services/auth"
	jwtx "github.com/quickdeploy/auth-svc/internal/jwt"
	githuboauth "github.com/quickdeploy/auth-svc/internal/oauth/github"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
	"github.com/quickdeploy/auth-svc/internal/store"
)

func main() {
	// .env primero, así las overrides de entorno ya están al cargar el YAML.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.dev")

	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Init(logger.Config{ServiceName: "auth-svc"})
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "auth-svc",
	})
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.L().Fatal("config inválida", logger.Err(err))
	}

	ctx := context.Background()

	users, err := store.New(ctx, cfg)
	if err != nil {
		logger.L().Fatal("store init failed", logger.Err(err))
	}
	defer func() { _ = users.Close() }()

	stateCache, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: parseDuration(cfg.Cache.Memory.DefaultTTL, 10*time.Minute),
	})
	if err != nil {
		logger.L().Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = stateCache.Close() }()

	gh := githuboauth.New(githuboauth.Config{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		RedirectURL:  cfg.GitHub.RedirectURL,
		Scopes:       cfg.GitHub.Scopes,
		OAuthBaseURL: cfg.GitHub.OAuthBaseURL,
		APIBaseURL:   cfg.GitHub.APIBaseURL,
	})

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, []byte(cfg.JWT.Secret), cfg.SessionTTL())

	states := svcauth.NewStateService(gh, stateCache, cfg.StateTTL())
	reconciler := svcauth.NewReconciler(users)
	callback := svcauth.NewCallbackService(gh, states, reconciler, issuer)

	mux := httpx.NewMux(httpx.RouterDeps{
		States:   states,
		Callback: callback,
		Users:    users,
		Repos:    gh,
		Issuer:   issuer,
		Ready: map[string]handlers.Pinger{
			"store": users,
			"cache": stateCache,
		},
	})

	handler := middlewares.Chain(mux,
		middlewares.WithRequestIDHeader(),
		middlewares.WithRecover(),
		middlewares.WithLogging(),
		middlewares.WithCORS(cfg.Server.CORSAllowedOrigins),
	)

	if err := httpx.Start(cfg.Server.Addr, handler); err != nil {
		logger.L().Fatal("server exited", logger.Err(err))
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
