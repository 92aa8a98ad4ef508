package auth

import (
	"context"
	"time"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
	githuboauth "github.com/quickdeploy/auth-svc/internal/oauth/github"
)

// CallbackRequest is the parsed callback payload.
// State is optional: the SPA validates it against its own storage before
// calling us, but when present we check it server-side too.
type CallbackRequest struct {
	Code  string
	State string
}

// LoginResult is what a successful callback yields.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *repository.User
}

// CallbackService runs the authorization-code login pipeline.
type CallbackService struct {
	OAuth      OAuthClient
	States     *StateService
	Reconciler *Reconciler
	Issuer     SessionIssuer
}

func NewCallbackService(oauth OAuthClient, states *StateService, rec *Reconciler, issuer SessionIssuer) *CallbackService {
	return &CallbackService{OAuth: oauth, States: states, Reconciler: rec, Issuer: issuer}
}

// Callback validates the CSRF state, exchanges the code, fetches the
// profile, reconciles the user and mints the session. Each step gates the
// next; nothing runs speculatively and nothing is retried. A failed
// exchange needs a fresh user-initiated login because codes are single-use.
func (s *CallbackService) Callback(ctx context.Context, req CallbackRequest) (*LoginResult, error) {
	log := logger.From(ctx).With(logger.Component("auth.callback"))

	// CSRF gate first: an invalid state aborts before any upstream call.
	if req.State != "" {
		if err := s.States.Validate(ctx, req.State); err != nil {
			log.Warn("state validation failed", logger.Err(err))
			return nil, err
		}
	}

	accessToken, err := s.OAuth.ExchangeCode(ctx, req.Code)
	if err != nil {
		log.Warn("code exchange failed", logger.Err(err))
		return nil, err
	}

	profile, emails, err := s.OAuth.FetchProfile(ctx, accessToken)
	if err != nil {
		log.Warn("profile fetch failed", logger.Err(err))
		return nil, err
	}
	email := githuboauth.PrimaryVerifiedEmail(emails)

	user, err := s.Reconciler.Reconcile(ctx, profile, email, accessToken)
	if err != nil {
		log.Error("reconcile failed", logger.Err(err), logger.GitHubID(profile.ID))
		return nil, err
	}

	token, exp, err := s.Issuer.IssueSession(user)
	if err != nil {
		log.Error("session issue failed", logger.Err(err), logger.UserID(user.ID))
		return nil, err
	}

	log.Info("login ok", logger.UserID(user.ID), logger.Username(user.Username))
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}
