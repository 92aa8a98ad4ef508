// Package store selecciona el adaptador de persistencia según configuración.
package store

import (
	"context"
	"fmt"

	"github.com/quickdeploy/auth-svc/internal/config"
	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	"github.com/quickdeploy/auth-svc/internal/store/memory"
	"github.com/quickdeploy/auth-svc/internal/store/pg"
)

// Repository agrupa el repositorio con su cierre.
type Repository interface {
	repository.UserRepository
	Close() error
}

// New crea el repositorio según storage.driver ("memory" | "postgres").
func New(ctx context.Context, cfg *config.Config) (Repository, error) {
	switch cfg.Storage.Driver {
	case "memory", "":
		return memory.New(), nil
	case "postgres", "pg":
		return pg.New(ctx, pg.Config{
			DSN:          cfg.Storage.DSN,
			MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
			Migrate:      cfg.Flags.Migrate,
		})
	default:
		return nil, fmt.Errorf("store: driver desconocido %q", cfg.Storage.Driver)
	}
}
