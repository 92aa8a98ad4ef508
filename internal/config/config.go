package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer string `yaml:"issuer"`
		// Secreto HMAC para firmar sesiones. Obligatorio (ver Validate).
		Secret     string `yaml:"secret"`
		SessionTTL string `yaml:"session_ttl"`
	} `yaml:"jwt"`

	GitHub struct {
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		RedirectURL  string   `yaml:"redirect_url"`
		Scopes       []string `yaml:"scopes"`
		// Overrides para tests / GitHub Enterprise. Vacío = github.com.
		OAuthBaseURL string `yaml:"oauth_base_url"`
		APIBaseURL   string `yaml:"api_base_url"`
		// TTL del state anti-CSRF guardado server-side.
		StateTTL string `yaml:"state_ttl"`
	} `yaml:"github"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// Load lee el YAML de configuración, aplica defaults y overrides de entorno.
// path vacío => solo defaults + entorno (útil en tests y contenedores).
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "10m"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "quickdeploy-auth"
	}
	if c.JWT.SessionTTL == "" {
		c.JWT.SessionTTL = "1h"
	}
	if len(c.GitHub.Scopes) == 0 {
		c.GitHub.Scopes = []string{"repo", "user:email"}
	}
	if c.GitHub.StateTTL == "" {
		c.GitHub.StateTTL = "10m"
	}

	c.applyEnvOverrides()
	return &c, nil
}

func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(strings.TrimSpace(v))
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_PG_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_SESSION_TTL"); ok {
		c.JWT.SessionTTL = v
	}

	// GITHUB
	if v, ok := getEnvStr("GITHUB_CLIENT_ID"); ok {
		c.GitHub.ClientID = v
	}
	if v, ok := getEnvStr("GITHUB_CLIENT_SECRET"); ok {
		c.GitHub.ClientSecret = v
	}
	if v, ok := getEnvStr("GITHUB_REDIRECT_URL"); ok {
		c.GitHub.RedirectURL = v
	}
	if v, ok := getEnvCSV("GITHUB_SCOPES"); ok && len(v) > 0 {
		c.GitHub.Scopes = v
	}
	if v, ok := getEnvStr("GITHUB_OAUTH_BASE_URL"); ok {
		c.GitHub.OAuthBaseURL = v
	}
	if v, ok := getEnvStr("GITHUB_API_BASE_URL"); ok {
		c.GitHub.APIBaseURL = v
	}
	if v, ok := getEnvStr("GITHUB_STATE_TTL"); ok {
		c.GitHub.StateTTL = v
	}

	// FLAGS
	if v, ok := getEnvBool("MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}

// Validate chequea la configuración crítica de arranque.
// Secreto JWT y client secret de GitHub ausentes son errores fatales:
// sin ellos no se puede firmar sesiones ni intercambiar codes.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret vacío (setear JWT_SECRET)")
	}
	if strings.TrimSpace(c.GitHub.ClientID) == "" {
		return fmt.Errorf("config: github.client_id vacío (setear GITHUB_CLIENT_ID)")
	}
	if strings.TrimSpace(c.GitHub.ClientSecret) == "" {
		return fmt.Errorf("config: github.client_secret vacío (setear GITHUB_CLIENT_SECRET)")
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.dsn vacío con driver postgres")
	}
	return nil
}

// SessionTTL parsea jwt.session_ttl con default de 1h.
func (c *Config) SessionTTL() time.Duration {
	if d, err := time.ParseDuration(c.JWT.SessionTTL); err == nil && d > 0 {
		return d
	}
	return time.Hour
}

// StateTTL parsea github.state_ttl con default de 10m.
func (c *Config) StateTTL() time.Duration {
	if d, err := time.ParseDuration(c.GitHub.StateTTL); err == nil && d > 0 {
		return d
	}
	return 10 * time.Minute
}

// ───── helpers de entorno ─────

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}
