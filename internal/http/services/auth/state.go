package auth

import (
	"context"
	"time"

	"github.com/quickdeploy/auth-svc/internal/cache"
	"github.com/quickdeploy/auth-svc/internal/observability/logger"
	tokens "github.com/quickdeploy/auth-svc/internal/security/token"
)

const statePrefix = "oauth:state:"

// StateService issues and validates the anti-CSRF state nonce.
//
// The browser keeps the raw state across the redirect; the server keeps
// only its SHA-256 in the cache, TTL-bounded to one login attempt. A nonce
// is consumed on first evaluation, match or not, so a captured callback
// URL cannot be replayed.
type StateService struct {
	OAuth OAuthClient
	Cache cache.Client
	TTL   time.Duration
}

func NewStateService(oauth OAuthClient, c cache.Client, ttl time.Duration) *StateService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateService{OAuth: oauth, Cache: c, TTL: ttl}
}

// Start generates a fresh state (32 random bytes, base64url), registers it
// as pending and returns the GitHub authorization URL carrying it.
func (s *StateService) Start(ctx context.Context) (authURL, state string, err error) {
	state, err = tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", "", err
	}
	if err := s.Cache.Set(ctx, statePrefix+tokens.SHA256Base64URL(state), "1", s.TTL); err != nil {
		return "", "", err
	}
	return s.OAuth.AuthURL(state), state, nil
}

// Validate consumes a pending state. Whatever the outcome, the nonce is
// cleared: single use. Unknown, expired or reused states fail with
// ErrInvalidState and the login flow must restart from scratch.
func (s *StateService) Validate(ctx context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	key := statePrefix + tokens.SHA256Base64URL(state)

	_, err := s.Cache.Get(ctx, key)
	// Clear first, evaluate after: a second presentation never matches.
	if delErr := s.Cache.Delete(ctx, key); delErr != nil {
		logger.From(ctx).Warn("state delete failed", logger.Err(delErr))
	}
	if err != nil {
		if cache.IsNotFound(err) {
			return ErrInvalidState
		}
		return err
	}
	return nil
}
