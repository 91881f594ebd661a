package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config holds the server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

// StoreConfig selects and configures the document store
type StoreConfig struct {
	Backend          string `yaml:"backend"`
	SQLitePath       string `yaml:"sqlite_path"`
	FirestoreProject string `yaml:"firestore_project"`
}

// AuthConfig holds token verification settings
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// ScoringConfig tunes the score reconciler and status broadcaster
type ScoringConfig struct {
	Concurrency    int           `yaml:"concurrency"`
	Debounce       time.Duration `yaml:"debounce"`
	StatusInterval time.Duration `yaml:"status_interval"`
}

// RateLimitConfig limits participant requests per caller
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8081},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: "pickem.db",
		},
		Auth: AuthConfig{
			Issuer:   "pickem",
			TokenTTL: 24 * time.Hour,
		},
		Scoring: ScoringConfig{
			Concurrency:    4,
			Debounce:       250 * time.Millisecond,
			StatusInterval: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{PerSecond: 2, Burst: 10},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// LoadEnvFiles loads the first .env file found. Variables already set in
// the environment win.
func LoadEnvFiles(paths ...string) string {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the YAML file at path over the defaults, then applies
// PICKEM_* environment overrides. A missing file is not an error unless
// it was named explicitly.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PICKEM_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	num("PICKEM_PORT", &c.Server.Port)
	str("PICKEM_BASE_URL", &c.Server.BaseURL)
	str("PICKEM_BACKEND", &c.Store.Backend)
	str("PICKEM_DB", &c.Store.SQLitePath)
	str("PICKEM_FIRESTORE_PROJECT", &c.Store.FirestoreProject)
	str("PICKEM_JWT_SECRET", &c.Auth.Secret)
	str("PICKEM_JWT_ISSUER", &c.Auth.Issuer)
	dur("PICKEM_TOKEN_TTL", &c.Auth.TokenTTL)
	num("PICKEM_SCORING_CONCURRENCY", &c.Scoring.Concurrency)
	dur("PICKEM_SCORING_DEBOUNCE", &c.Scoring.Debounce)
	dur("PICKEM_STATUS_INTERVAL", &c.Scoring.StatusInterval)
	num("PICKEM_RATE_BURST", &c.RateLimit.Burst)
	str("PICKEM_LOG_LEVEL", &c.Log.Level)
	str("PICKEM_LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("PICKEM_RATE_PER_SECOND"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PICKEM_RATE_PER_SECOND: %w", err))
		} else {
			c.RateLimit.PerSecond = f
		}
	}
	// GOOGLE_CLOUD_PROJECT is the fallback used by the Firestore tooling
	if c.Store.FirestoreProject == "" {
		str("GOOGLE_CLOUD_PROJECT", &c.Store.FirestoreProject)
	}

	return errors.Join(errs...)
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.BaseURL != "" && !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("server.base_url must start with http:// or https://"))
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite backend"))
		}
	case BackendFirestore:
		if c.Store.FirestoreProject == "" {
			errs = append(errs, errors.New("store.firestore_project is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Scoring.Concurrency < 1 {
		errs = append(errs, errors.New("scoring.concurrency must be at least 1"))
	}
	if c.Scoring.Debounce < 0 {
		errs = append(errs, errors.New("scoring.debounce must not be negative"))
	}
	if c.Scoring.StatusInterval <= 0 {
		errs = append(errs, errors.New("scoring.status_interval must be positive"))
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit needs a positive per_second and burst"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
