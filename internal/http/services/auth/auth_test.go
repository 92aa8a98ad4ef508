package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quickdeploy/auth-svc/internal/cache"
	"github.com/quickdeploy/auth-svc/internal/domain/repository"
	githuboauth "github.com/quickdeploy/auth-svc/internal/oauth/github"
	"github.com/quickdeploy/auth-svc/internal/store/memory"
)

// spyOAuth records upstream calls so tests can assert ordering guarantees
// (most importantly: no exchange after a failed state check).
type spyOAuth struct {
	exchangeCalls int
	profileCalls  int

	token   string
	tokenBy map[string]string // code -> token; missing code means rejection

	profile *githuboauth.UserInfo
	emails  []githuboauth.EmailInfo

	profileErr error
}

func newSpyOAuth() *spyOAuth {
	return &spyOAuth{
		token:   "gho_tok1",
		tokenBy: map[string]string{"abc123": "gho_tok1"},
		profile: &githuboauth.UserInfo{ID: 42, Login: "alice", AvatarURL: "https://a.test/alice.png"},
		emails: []githuboauth.EmailInfo{
			{Email: "a@x.com", Primary: true, Verified: true},
		},
	}
}

func (s *spyOAuth) AuthURL(state string) string { return "https://github.test/authorize?state=" + state }

func (s *spyOAuth) ExchangeCode(ctx context.Context, code string) (string, error) {
	s.exchangeCalls++
	if code == "" {
		return "", githuboauth.ErrMissingCode
	}
	tok, ok := s.tokenBy[code]
	if !ok {
		return "", githuboauth.ErrUpstreamToken
	}
	// Single use: a second exchange of the same code fails.
	delete(s.tokenBy, code)
	return tok, nil
}

func (s *spyOAuth) FetchProfile(ctx context.Context, accessToken string) (*githuboauth.UserInfo, []githuboauth.EmailInfo, error) {
	s.profileCalls++
	if s.profileErr != nil {
		return nil, nil, s.profileErr
	}
	if accessToken != s.token {
		return nil, nil, githuboauth.ErrUpstreamProfile
	}
	return s.profile, s.emails, nil
}

// fakeIssuer avoids real signing in service-level tests.
type fakeIssuer struct{}

func (fakeIssuer) IssueSession(u *repository.User) (string, time.Time, error) {
	return "session-for-" + u.ID, time.Now().Add(time.Hour), nil
}

func newTestService(t *testing.T) (*CallbackService, *spyOAuth, *memory.Store, *StateService) {
	t.Helper()
	oauth := newSpyOAuth()
	users := memory.New()
	states := NewStateService(oauth, cache.NewMemory(cache.Config{}), time.Minute)
	svc := NewCallbackService(oauth, states, NewReconciler(users), fakeIssuer{})
	return svc, oauth, users, states
}

func TestStateRoundTrip(t *testing.T) {
	_, _, _, states := newTestService(t)
	ctx := context.Background()

	url, state, err := states.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state == "" || url == "" {
		t.Fatal("empty state or url")
	}
	if err := states.Validate(ctx, state); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestStateSingleUse(t *testing.T) {
	_, _, _, states := newTestService(t)
	ctx := context.Background()

	_, state, err := states.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := states.Validate(ctx, state); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if err := states.Validate(ctx, state); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("replayed state: err = %v, want ErrInvalidState", err)
	}
}

func TestStateUnknown(t *testing.T) {
	_, _, _, states := newTestService(t)

	err := states.Validate(context.Background(), "never-issued")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestStateEmpty(t *testing.T) {
	_, _, _, states := newTestService(t)

	if err := states.Validate(context.Background(), ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestCallbackHappyPath(t *testing.T) {
	svc, _, users, states := newTestService(t)
	ctx := context.Background()

	_, state, err := states.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err := svc.Callback(ctx, CallbackRequest{Code: "abc123", State: state})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if res.Token == "" {
		t.Fatal("no session token")
	}
	if res.User.GitHubID != 42 || res.User.Username != "alice" || res.User.Email != "a@x.com" {
		t.Fatalf("user = %+v", res.User)
	}

	stored, err := users.GetByGitHubID(ctx, 42)
	if err != nil {
		t.Fatalf("stored user: %v", err)
	}
	if stored.GitHubToken != "gho_tok1" {
		t.Fatalf("stored token = %q", stored.GitHubToken)
	}
}

func TestCallbackInvalidStateSkipsExchange(t *testing.T) {
	svc, oauth, _, _ := newTestService(t)

	_, err := svc.Callback(context.Background(), CallbackRequest{Code: "abc123", State: "forged"})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if oauth.exchangeCalls != 0 {
		t.Fatalf("exchange was called %d times after a failed state check", oauth.exchangeCalls)
	}
}

func TestCallbackRejectedCode(t *testing.T) {
	svc, oauth, _, _ := newTestService(t)

	_, err := svc.Callback(context.Background(), CallbackRequest{Code: "expired"})
	if !errors.Is(err, githuboauth.ErrUpstreamToken) {
		t.Fatalf("err = %v, want ErrUpstreamToken", err)
	}
	if oauth.profileCalls != 0 {
		t.Fatal("profile was fetched after a failed exchange")
	}
}

func TestCallbackMissingCode(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Callback(context.Background(), CallbackRequest{})
	if !errors.Is(err, githuboauth.ErrMissingCode) {
		t.Fatalf("err = %v, want ErrMissingCode", err)
	}
}

func TestCallbackProfileFailure(t *testing.T) {
	svc, oauth, users, _ := newTestService(t)
	oauth.profileErr = githuboauth.ErrUpstreamProfile

	_, err := svc.Callback(context.Background(), CallbackRequest{Code: "abc123"})
	if !errors.Is(err, githuboauth.ErrUpstreamProfile) {
		t.Fatalf("err = %v, want ErrUpstreamProfile", err)
	}
	if _, err := users.GetByGitHubID(context.Background(), 42); !repository.IsNotFound(err) {
		t.Fatal("user was created despite profile failure")
	}
}

func TestReconcileCreatesUser(t *testing.T) {
	users := memory.New()
	rec := NewReconciler(users)

	u, err := rec.Reconcile(context.Background(),
		&githuboauth.UserInfo{ID: 42, Login: "alice", AvatarURL: "https://a.test/a.png"},
		"a@x.com", "gho_tok1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if u.ID == "" || u.GitHubID != 42 || u.Email != "a@x.com" || u.GitHubToken != "gho_tok1" {
		t.Fatalf("user = %+v", u)
	}
}

func TestReconcileOverwritesToken(t *testing.T) {
	users := memory.New()
	rec := NewReconciler(users)
	ctx := context.Background()

	first, err := rec.Reconcile(ctx, &githuboauth.UserInfo{ID: 42, Login: "alice"}, "a@x.com", "tok-old")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := rec.Reconcile(ctx, &githuboauth.UserInfo{ID: 42, Login: "alice"}, "a@x.com", "tok-new")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("second login created a new user")
	}
	stored, _ := users.GetByGitHubID(ctx, 42)
	if stored.GitHubToken != "tok-new" {
		t.Fatalf("stored token = %q, want tok-new", stored.GitHubToken)
	}
}

func TestReconcileEmailSetOnce(t *testing.T) {
	users := memory.New()
	rec := NewReconciler(users)
	ctx := context.Background()

	// First login: primary+verified email present.
	if _, err := rec.Reconcile(ctx, &githuboauth.UserInfo{ID: 42, Login: "alice"}, "a@x.com", "tok1"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	// Second login: upstream no longer reports a usable email.
	if _, err := rec.Reconcile(ctx, &githuboauth.UserInfo{ID: 42, Login: "alice"}, "", "tok2"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	stored, _ := users.GetByGitHubID(ctx, 42)
	if stored.Email != "a@x.com" {
		t.Fatalf("email = %q, want a@x.com (set once, never cleared)", stored.Email)
	}
	if stored.GitHubToken != "tok2" {
		t.Fatalf("token = %q, want tok2", stored.GitHubToken)
	}
}

func TestReconcileEmailBackfill(t *testing.T) {
	users := memory.New()
	rec := NewReconciler(users)
	ctx := context.Background()

	// First login without a usable email, second login with one.
	if _, err := rec.Reconcile(ctx, &githuboauth.UserInfo{ID: 42, Login: "alice"}, "", "tok1"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := rec.Reconcile(ctx, &githuboauth.UserInfo{ID: 42, Login: "alice"}, "late@x.com", "tok2"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	stored, _ := users.GetByGitHubID(ctx, 42)
	if stored.Email != "late@x.com" {
		t.Fatalf("email = %q, want late@x.com", stored.Email)
	}
}

func TestReconcileRefreshesUsernameAndAvatar(t *testing.T) {
	users := memory.New()
	rec := NewReconciler(users)
	ctx := context.Background()

	if _, err := rec.Reconcile(ctx, &githuboauth.UserInfo{ID: 42, Login: "alice", AvatarURL: "https://a.test/v1.png"}, "a@x.com", "tok1"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := rec.Reconcile(ctx, &githuboauth.UserInfo{ID: 42, Login: "alice-renamed", AvatarURL: "https://a.test/v2.png"}, "a@x.com", "tok2"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	stored, _ := users.GetByGitHubID(ctx, 42)
	if stored.Username != "alice-renamed" {
		t.Fatalf("username = %q", stored.Username)
	}
	if stored.AvatarURL != "https://a.test/v2.png" {
		t.Fatalf("avatar = %q", stored.AvatarURL)
	}
}
