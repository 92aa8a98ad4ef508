// Package github implements OAuth 2.0 authentication with GitHub.
// GitHub uses OAuth 2.0 without ID tokens, so user information comes
// from separate API calls after the code exchange.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultOAuthBase = "https://github.com"
	defaultAPIBase   = "https://api.github.com"
)

// Sentinel errors for the callers to map to HTTP responses.
var (
	// ErrMissingCode: empty authorization code; detected before any network call.
	ErrMissingCode = errors.New("github: missing authorization code")

	// ErrUpstreamToken: GitHub rejected the code (consumed, expired or bogus).
	// Not retryable: authorization codes are single-use.
	ErrUpstreamToken = errors.New("github: upstream rejected code")

	// ErrUpstreamProfile: profile or email fetch failed; partial identity
	// data is never accepted.
	ErrUpstreamProfile = errors.New("github: profile fetch failed")

	// ErrUpstreamUnavailable: network-level failure talking to GitHub.
	// Retryable by the caller (with a fresh login for the exchange path).
	ErrUpstreamUnavailable = errors.New("github: upstream unavailable")
)

// OAuth is the GitHub OAuth 2.0 + API client.
type OAuth struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	oauthBase string
	apiBase   string
	http      *http.Client
}

// Config for the client. Base URLs are overridable for tests and GHE.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	OAuthBaseURL string
	APIBaseURL   string
	Timeout      time.Duration
}

// New creates a new GitHub OAuth client.
func New(cfg Config) *OAuth {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"repo", "user:email"}
	}
	oauthBase := strings.TrimRight(cfg.OAuthBaseURL, "/")
	if oauthBase == "" {
		oauthBase = defaultOAuthBase
	}
	apiBase := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OAuth{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		oauthBase:    oauthBase,
		apiBase:      apiBase,
		http:         &http.Client{Timeout: timeout},
	}
}

// AuthURL builds the authorization URL for GitHub OAuth.
// The state is generated by the caller and must round-trip unchanged.
func (g *OAuth) AuthURL(state string) string {
	u, _ := url.Parse(g.oauthBase + "/login/oauth/authorize")
	q := u.Query()
	q.Set("client_id", g.ClientID)
	q.Set("response_type", "code")
	if g.RedirectURL != "" {
		q.Set("redirect_uri", g.RedirectURL)
	}
	q.Set("scope", strings.Join(g.Scopes, " "))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// TokenResponse is the response from GitHub's token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

// ExchangeCode exchanges an authorization code for an access token.
// One POST, no retries: a rejected code does not become valid by retrying.
func (g *OAuth) ExchangeCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrMissingCode
	}

	form := url.Values{}
	form.Set("client_id", g.ClientID)
	form.Set("client_secret", g.ClientSecret)
	form.Set("code", code)
	if g.RedirectURL != "" {
		form.Set("redirect_uri", g.RedirectURL)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.oauthBase+"/login/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", ErrUpstreamToken, err)
	}
	if tr.Error != "" {
		return "", fmt.Errorf("%w: %s - %s", ErrUpstreamToken, tr.Error, tr.ErrorDesc)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: no access_token in response", ErrUpstreamToken)
	}
	return tr.AccessToken, nil
}

// UserInfo contains user information from the GitHub API.
type UserInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Type      string `json:"type"`
}

// EmailInfo contains email information from the GitHub API.
type EmailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchProfile fetches /user and /user/emails concurrently with the same
// access token. Both calls must succeed; if either fails the whole fetch
// fails with ErrUpstreamProfile; one-sided results never proceed.
func (g *OAuth) FetchProfile(ctx context.Context, accessToken string) (*UserInfo, []EmailInfo, error) {
	var (
		info   UserInfo
		emails []EmailInfo
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return g.getJSON(ctx, "/user", accessToken, &info)
	})
	eg.Go(func() error {
		return g.getJSON(ctx, "/user/emails", accessToken, &emails)
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstreamProfile, err)
	}

	if info.ID == 0 || info.Login == "" {
		// Schema validation at the boundary: fail closed on unexpected shape.
		return nil, nil, fmt.Errorf("%w: user payload missing id/login", ErrUpstreamProfile)
	}
	return &info, emails, nil
}

// PrimaryVerifiedEmail picks the entry flagged both primary and verified.
// No qualifying entry means the email is absent; login does not block on it.
func PrimaryVerifiedEmail(emails []EmailInfo) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

// ListRepos performs the authorized pass-through GET to /user/repos and
// relays the raw payload. Failures here are retryable and do not
// invalidate the caller's session.
func (g *OAuth) ListRepos(ctx context.Context, accessToken string) (json.RawMessage, error) {
	var items json.RawMessage
	if err := g.getJSON(ctx, "/user/repos", accessToken, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return items, nil
}

// getJSON issues one authorized GET against the API base.
func (g *OAuth) getJSON(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", g.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api error: status %d on %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
