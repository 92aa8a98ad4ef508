package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	"github.com/quickdeploy/auth-svc/internal/security/secretbox"
)

const userColumns = `id, github_id, username, COALESCE(email,''), COALESCE(avatar_url,''), github_token, created_at, updated_at`

func (s *Store) GetByGitHubID(ctx context.Context, githubID int64) (*repository.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE github_id = $1`, githubID)
	return scanUser(row)
}

func (s *Store) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, userID)
	return scanUser(row)
}

func (s *Store) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	now := time.Now().UTC()
	u := &repository.User{
		ID:          uuid.NewString(),
		GitHubID:    input.GitHubID,
		Username:    input.Username,
		Email:       input.Email,
		AvatarURL:   input.AvatarURL,
		GitHubToken: input.GitHubToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored, err := sealToken(input.GitHubToken)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO app_user (id, github_id, username, email, avatar_url, github_token, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7, $7)`,
		u.ID, u.GitHubID, u.Username, u.Email, u.AvatarURL, stored, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation (github_id duplicado)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) Update(ctx context.Context, userID string, input repository.UpdateUserInput) error {
	var tokenArg *string
	if input.GitHubToken != nil {
		sealed, err := sealToken(*input.GitHubToken)
		if err != nil {
			return err
		}
		tokenArg = &sealed
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE app_user SET
			username     = COALESCE($2, username),
			email        = COALESCE(NULLIF($3,''), email),
			avatar_url   = COALESCE(NULLIF($4,''), avatar_url),
			github_token = COALESCE($5, github_token),
			updated_at   = now()
		WHERE id = $1`,
		userID, input.Username, deref(input.Email), deref(input.AvatarURL), tokenArg,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.GitHubID, &u.Username, &u.Email, &u.AvatarURL,
		&u.GitHubToken, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	tok, err := openToken(u.GitHubToken)
	if err != nil {
		return nil, err
	}
	u.GitHubToken = tok
	return &u, nil
}

// sealToken cifra el token en reposo si hay clave maestra configurada.
func sealToken(tok string) (string, error) {
	if tok == "" || !secretbox.Ready() {
		return tok, nil
	}
	return secretbox.Encrypt(tok)
}

// openToken tolera valores legacy en claro (filas escritas sin clave maestra).
func openToken(stored string) (string, error) {
	if stored == "" || !secretbox.IsEncrypted(stored) {
		return stored, nil
	}
	return secretbox.Decrypt(stored)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
