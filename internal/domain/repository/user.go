package repository

import (
	"context"
	"time"
)

// User representa un usuario autenticado vía GitHub.
// Hay exactamente un User por GitHubID; el lookup de reconciliación
// es siempre por GitHubID, nunca por el ID local.
type User struct {
	ID          string
	GitHubID    int64
	Username    string
	Email       string // vacío = ausente; se setea una vez y no se pisa
	AvatarURL   string
	GitHubToken string // access token upstream; nunca viaja al browser
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserInput contiene los datos para crear un usuario en el primer login.
type CreateUserInput struct {
	GitHubID    int64
	Username    string
	Email       string
	AvatarURL   string
	GitHubToken string
}

// UpdateUserInput contiene los campos actualizables en logins posteriores.
// nil = no tocar el campo.
type UpdateUserInput struct {
	Username    *string
	Email       *string
	AvatarURL   *string
	GitHubToken *string
}

// UserRepository define operaciones sobre usuarios.
// La política de merge (token siempre pisa, email set-once) vive en el
// reconciler; el repositorio solo persiste.
type UserRepository interface {
	// GetByGitHubID busca un usuario por su ID de GitHub.
	// Retorna ErrNotFound si no existe.
	GetByGitHubID(ctx context.Context, githubID int64) (*User, error)

	// GetByID busca un usuario por ID local.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, userID string) (*User, error)

	// Create crea un nuevo usuario.
	// Retorna ErrConflict si ya existe uno con ese GitHubID.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// Update actualiza campos de un usuario existente.
	// Retorna ErrNotFound si no existe.
	Update(ctx context.Context, userID string, input UpdateUserInput) error

	// Ping verifica la conexión al backend (para /readyz).
	Ping(ctx context.Context) error
}
