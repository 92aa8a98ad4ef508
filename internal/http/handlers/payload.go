// Package handlers contiene los HTTP handlers del servicio de auth.
package handlers

import "github.com/quickdeploy/auth-svc/internal/domain/repository"

// userPayload es la vista pública del usuario. El token de GitHub nunca
// se serializa.
type userPayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func toUserPayload(u *repository.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}
