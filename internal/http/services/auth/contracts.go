// Package auth contains the login pipeline services: CSRF state handling,
// the GitHub callback flow and user reconciliation.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	githuboauth "github.com/quickdeploy/auth-svc/internal/oauth/github"
)

// Service-level errors.
var (
	// ErrInvalidState: state missing from the pending set, already consumed,
	// or expired. Rejected before any upstream call is made.
	ErrInvalidState = errors.New("auth: invalid or replayed state")
)

// OAuthClient is the subset of the GitHub client the login flow needs.
// Narrowed here so tests can fake the upstream without a network.
type OAuthClient interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*githuboauth.UserInfo, []githuboauth.EmailInfo, error)
}

// SessionIssuer mints the signed session credential for a reconciled user.
type SessionIssuer interface {
	IssueSession(u *repository.User) (token string, expiresAt time.Time, err error)
}
