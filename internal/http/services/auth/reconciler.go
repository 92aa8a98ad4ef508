package auth

import (
	"context"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
	githuboauth "github.com/quickdeploy/auth-svc/internal/oauth/github"
)

// Reconciler maps an upstream profile onto the local user record.
//
// Merge policy (the whole contract of this type):
//   - lookup is by GitHub user id, never by local id
//   - upstream token is always overwritten: most recent credential wins
//   - email is set once; later logins never clear or replace it
//   - username and avatar are refreshed to the latest upstream value
type Reconciler struct {
	Users repository.UserRepository
}

func NewReconciler(users repository.UserRepository) *Reconciler {
	return &Reconciler{Users: users}
}

// Reconcile creates or updates the user for a successful login.
// email may be empty (no primary+verified address upstream); that is not
// an error and must not block login.
func (r *Reconciler) Reconcile(ctx context.Context, profile *githuboauth.UserInfo, email, accessToken string) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Component("auth.reconciler"), logger.GitHubID(profile.ID))

	u, err := r.Users.GetByGitHubID(ctx, profile.ID)
	if repository.IsNotFound(err) {
		created, err := r.Users.Create(ctx, repository.CreateUserInput{
			GitHubID:    profile.ID,
			Username:    profile.Login,
			Email:       email,
			AvatarURL:   profile.AvatarURL,
			GitHubToken: accessToken,
		})
		if err != nil {
			return nil, err
		}
		log.Info("user created", logger.UserID(created.ID), logger.Username(created.Username))
		return created, nil
	}
	if err != nil {
		return nil, err
	}

	in := repository.UpdateUserInput{
		Username:    &profile.Login,
		GitHubToken: &accessToken,
	}
	if profile.AvatarURL != "" {
		in.AvatarURL = &profile.AvatarURL
	}
	if u.Email == "" && email != "" {
		in.Email = &email
	}
	if err := r.Users.Update(ctx, u.ID, in); err != nil {
		return nil, err
	}

	// Reflect the merge locally instead of re-reading.
	u.Username = profile.Login
	u.GitHubToken = accessToken
	if in.AvatarURL != nil {
		u.AvatarURL = *in.AvatarURL
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	log.Info("user updated", logger.UserID(u.ID), logger.Username(u.Username))
	return u, nil
}
