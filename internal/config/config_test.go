package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Addr != ":8000" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if c.Storage.Driver != "memory" || c.Cache.Kind != "memory" {
		t.Errorf("drivers = %q/%q", c.Storage.Driver, c.Cache.Kind)
	}
	if c.SessionTTL() != time.Hour {
		t.Errorf("session ttl = %v", c.SessionTTL())
	}
	if c.StateTTL() != 10*time.Minute {
		t.Errorf("state ttl = %v", c.StateTTL())
	}
	if len(c.GitHub.Scopes) != 2 {
		t.Errorf("scopes = %v", c.GitHub.Scopes)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9000"
storage:
  driver: postgres
  dsn: postgres://app@localhost/auth
jwt:
  issuer: my-issuer
  secret: yaml-secret
  session_ttl: 30m
github:
  client_id: cid
  client_secret: csecret
  state_ttl: 5m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Addr != ":9000" || c.Storage.Driver != "postgres" {
		t.Fatalf("yaml no aplicado: %+v", c.Server)
	}
	if c.SessionTTL() != 30*time.Minute || c.StateTTL() != 5*time.Minute {
		t.Fatalf("ttls = %v / %v", c.SessionTTL(), c.StateTTL())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("GITHUB_SCOPES", "repo, user:email , read:org")
	t.Setenv("CACHE_KIND", "Redis")

	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Addr != ":7777" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if c.JWT.Secret != "env-secret" {
		t.Errorf("secret no tomado del entorno")
	}
	if len(c.GitHub.Scopes) != 3 || c.GitHub.Scopes[2] != "read:org" {
		t.Errorf("scopes = %v", c.GitHub.Scopes)
	}
	if c.Cache.Kind != "redis" {
		t.Errorf("kind = %q, esperaba normalizado en minúsculas", c.Cache.Kind)
	}
}

func TestValidateFatalConfig(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"sin jwt secret", func(c *Config) { c.JWT.Secret = "" }},
		{"sin client id", func(c *Config) { c.GitHub.ClientID = "" }},
		{"sin client secret", func(c *Config) { c.GitHub.ClientSecret = "" }},
		{"postgres sin dsn", func(c *Config) {
			c.Storage.Driver = "postgres"
			c.Storage.DSN = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			c.JWT.Secret = "s"
			c.GitHub.ClientID = "cid"
			c.GitHub.ClientSecret = "cs"
			tc.mut(c)
			if err := c.Validate(); err == nil {
				t.Fatal("validate no falló")
			}
		})
	}
}

func TestBadTTLFallsBack(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	c.JWT.SessionTTL = "no-es-duracion"
	c.GitHub.StateTTL = "-5m"
	if c.SessionTTL() != time.Hour {
		t.Errorf("session ttl = %v", c.SessionTTL())
	}
	if c.StateTTL() != 10*time.Minute {
		t.Errorf("state ttl = %v", c.StateTTL())
	}
}
