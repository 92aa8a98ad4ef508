package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeGitHub simulates the token endpoint and the API, enforcing
// single-use authorization codes like the real thing.
type fakeGitHub struct {
	mu        sync.Mutex
	usedCodes map[string]bool

	validCode   string
	accessToken string

	user   UserInfo
	emails []EmailInfo

	failUser   bool
	failEmails bool
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		usedCodes:   map[string]bool{},
		validCode:   "abc123",
		accessToken: "gho_tok1",
		user:        UserInfo{ID: 42, Login: "alice", AvatarURL: "https://avatars.test/alice.png"},
		emails: []EmailInfo{
			{Email: "spam@x.com", Primary: false, Verified: true},
			{Email: "a@x.com", Primary: true, Verified: true},
		},
	}
}

func (f *fakeGitHub) oauthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		code := r.PostFormValue("code")
		w.Header().Set("Content-Type", "application/json")

		f.mu.Lock()
		used := f.usedCodes[code]
		f.usedCodes[code] = true
		f.mu.Unlock()

		if code != f.validCode || used {
			// GitHub answers 200 with an error field, not a 4xx.
			json.NewEncoder(w).Encode(map[string]string{
				"error":             "bad_verification_code",
				"error_description": "The code passed is incorrect or expired.",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": f.accessToken,
			"token_type":   "bearer",
			"scope":        "repo,user:email",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeGitHub) apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	auth := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+f.accessToken
	}
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if f.failUser || !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(f.user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if f.failEmails || !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(f.emails)
	})
	mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "infra", "private": true},
			{"id": 2, "name": "web", "private": false},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, f *fakeGitHub) *OAuth {
	t.Helper()
	return New(Config{
		ClientID:     "cid",
		ClientSecret: "csecret",
		RedirectURL:  "http://localhost:5173/callback",
		OAuthBaseURL: f.oauthServer(t).URL,
		APIBaseURL:   f.apiServer(t).URL,
		Timeout:      2 * time.Second,
	})
}

func TestAuthURL(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)

	u := g.AuthURL("st4te")
	for _, want := range []string{"client_id=cid", "state=st4te", "response_type=code", "scope="} {
		if !strings.Contains(u, want) {
			t.Errorf("auth url missing %q: %s", want, u)
		}
	}
}

func TestExchangeCode(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)
	ctx := context.Background()

	tok, err := g.ExchangeCode(ctx, "abc123")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if tok != "gho_tok1" {
		t.Fatalf("token = %q", tok)
	}
}

func TestExchangeCodeEmpty(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)

	_, err := g.ExchangeCode(context.Background(), "   ")
	if !errors.Is(err, ErrMissingCode) {
		t.Fatalf("err = %v, want ErrMissingCode", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.usedCodes) != 0 {
		t.Fatal("empty code reached the network")
	}
}

func TestExchangeCodeSingleUse(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)
	ctx := context.Background()

	if _, err := g.ExchangeCode(ctx, "abc123"); err != nil {
		t.Fatalf("first exchange: %v", err)
	}
	_, err := g.ExchangeCode(ctx, "abc123")
	if !errors.Is(err, ErrUpstreamToken) {
		t.Fatalf("reused code: err = %v, want ErrUpstreamToken", err)
	}
}

func TestExchangeCodeRejected(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)

	_, err := g.ExchangeCode(context.Background(), "wrong")
	if !errors.Is(err, ErrUpstreamToken) {
		t.Fatalf("err = %v, want ErrUpstreamToken", err)
	}
}

func TestExchangeCodeUpstreamDown(t *testing.T) {
	f := newFakeGitHub()
	srv := f.oauthServer(t)
	g := New(Config{
		ClientID:     "cid",
		ClientSecret: "csecret",
		OAuthBaseURL: srv.URL,
		Timeout:      time.Second,
	})
	srv.Close()

	_, err := g.ExchangeCode(context.Background(), "abc123")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestFetchProfile(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)

	info, emails, err := g.FetchProfile(context.Background(), "gho_tok1")
	if err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if info.ID != 42 || info.Login != "alice" {
		t.Fatalf("profile = %+v", info)
	}
	if got := PrimaryVerifiedEmail(emails); got != "a@x.com" {
		t.Fatalf("primary verified email = %q", got)
	}
}

func TestFetchProfilePartialFailure(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*fakeGitHub)
	}{
		{"user endpoint down", func(f *fakeGitHub) { f.failUser = true }},
		{"emails endpoint down", func(f *fakeGitHub) { f.failEmails = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeGitHub()
			tc.mut(f)
			g := newClient(t, f)

			_, _, err := g.FetchProfile(context.Background(), "gho_tok1")
			if !errors.Is(err, ErrUpstreamProfile) {
				t.Fatalf("err = %v, want ErrUpstreamProfile", err)
			}
		})
	}
}

func TestFetchProfileBadToken(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)

	_, _, err := g.FetchProfile(context.Background(), "stolen")
	if !errors.Is(err, ErrUpstreamProfile) {
		t.Fatalf("err = %v, want ErrUpstreamProfile", err)
	}
}

func TestPrimaryVerifiedEmail(t *testing.T) {
	cases := []struct {
		name   string
		emails []EmailInfo
		want   string
	}{
		{"primary and verified", []EmailInfo{{Email: "a@x.com", Primary: true, Verified: true}}, "a@x.com"},
		{"primary but unverified", []EmailInfo{{Email: "a@x.com", Primary: true, Verified: false}}, ""},
		{"verified but secondary", []EmailInfo{{Email: "b@x.com", Primary: false, Verified: true}}, ""},
		{"none", nil, ""},
		{"picks the right one", []EmailInfo{
			{Email: "old@x.com", Primary: false, Verified: true},
			{Email: "new@x.com", Primary: true, Verified: true},
		}, "new@x.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PrimaryVerifiedEmail(tc.emails); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestListRepos(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)

	raw, err := g.ListRepos(context.Background(), "gho_tok1")
	if err != nil {
		t.Fatalf("list repos: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Fatalf("payload is not a json array: %v", err)
	}
	if len(items) != 2 || items[0]["name"] != "infra" {
		t.Fatalf("items = %+v", items)
	}
}

func TestListReposBadToken(t *testing.T) {
	f := newFakeGitHub()
	g := newClient(t, f)

	_, err := g.ListRepos(context.Background(), "stolen")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}
