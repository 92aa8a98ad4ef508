// Package memory implementa UserRepository en memoria.
// Pensado para desarrollo y tests; no persiste entre reinicios.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
)

type Store struct {
	mu       sync.RWMutex
	byID     map[string]*repository.User
	byGitHub map[int64]string // github_id -> user id
}

func New() *Store {
	return &Store{
		byID:     make(map[string]*repository.User),
		byGitHub: make(map[int64]string),
	}
}

func (s *Store) GetByGitHubID(ctx context.Context, githubID int64) (*repository.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byGitHub[githubID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(u), nil
}

func (s *Store) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byGitHub[input.GitHubID]; ok {
		return nil, repository.ErrConflict
	}

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
	s.byID[u.ID] = u
	s.byGitHub[u.GitHubID] = u.ID
	return clone(u), nil
}

func (s *Store) Update(ctx context.Context, userID string, input repository.UpdateUserInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if input.Username != nil {
		u.Username = *input.Username
	}
	if input.Email != nil && *input.Email != "" {
		u.Email = *input.Email
	}
	if input.AvatarURL != nil && *input.AvatarURL != "" {
		u.AvatarURL = *input.AvatarURL
	}
	if input.GitHubToken != nil {
		u.GitHubToken = *input.GitHubToken
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func clone(u *repository.User) *repository.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
