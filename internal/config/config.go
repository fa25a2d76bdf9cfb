// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/authsamples/internal/factory"
	"github.com/mcoot/authsamples/internal/services/auth"
	"github.com/mcoot/authsamples/internal/storage/postgres"
	redisstorage "github.com/mcoot/authsamples/internal/storage/redis"
)

// Config holds server settings
type Config struct {
	Host string
	Port int

	StorageType string
	RedisURL    string
	DatabaseURL string

	SessionDuration        time.Duration
	SessionCleanupInterval time.Duration

	BcryptCost    int
	CookieHashKey string
	CookieSecure  bool

	LogLevel slog.Level
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Port:                   8080,
		StorageType:            factory.StorageTypeMemory,
		SessionDuration:        auth.DefaultConfig().SessionDuration,
		SessionCleanupInterval: 10 * time.Minute,
		LogLevel:               slog.LevelInfo,
	}
}

// Load reads the given .env files (missing files are skipped), then the
// process environment. Variables already set in the environment win over
// values from the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a variable lookup function
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	cfg.Host = p.str("HOST", cfg.Host)
	cfg.Port = p.int("PORT", cfg.Port)
	cfg.StorageType = strings.ToLower(p.str("STORAGE_TYPE", cfg.StorageType))
	cfg.RedisURL = p.str("REDIS_URL", "")
	cfg.DatabaseURL = p.str("DATABASE_URL", "")
	cfg.SessionDuration = p.duration("SESSION_DURATION", cfg.SessionDuration)
	cfg.SessionCleanupInterval = p.duration("SESSION_CLEANUP_INTERVAL", cfg.SessionCleanupInterval)
	cfg.BcryptCost = p.int("BCRYPT_COST", cfg.BcryptCost)
	cfg.CookieHashKey = p.str("COOKIE_HASH_KEY", "")
	cfg.CookieSecure = p.bool("COOKIE_SECURE", cfg.CookieSecure)
	cfg.LogLevel = p.level("LOG_LEVEL", cfg.LogLevel)

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings are consistent
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	switch c.StorageType {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	case factory.StorageTypePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL required when STORAGE_TYPE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_TYPE %q: must be 'memory', 'redis' or 'postgres'", c.StorageType))
	}

	if c.SessionDuration <= 0 {
		errs = append(errs, errors.New("SESSION_DURATION must be positive"))
	}
	if c.SessionCleanupInterval <= 0 {
		errs = append(errs, errors.New("SESSION_CLEANUP_INTERVAL must be positive"))
	}
	if c.CookieHashKey != "" && len(c.CookieHashKey) < 32 {
		errs = append(errs, errors.New("COOKIE_HASH_KEY must be at least 32 bytes"))
	}

	return errors.Join(errs...)
}

// Factory translates the settings into an application factory config
func (c *Config) Factory(logger *slog.Logger) factory.Config {
	fc := factory.Config{
		AuthConfig:   auth.Config{SessionDuration: c.SessionDuration},
		Logger:       logger,
		StorageType:  c.StorageType,
		BcryptCost:   c.BcryptCost,
		CookieSecure: c.CookieSecure,
	}
	if c.CookieHashKey != "" {
		fc.CookieHashKey = []byte(c.CookieHashKey)
	}

	switch c.StorageType {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		fc.RedisConfig = &redisCfg
	case factory.StorageTypePostgres:
		fc.PostgresConfig = &postgres.Config{URL: c.DatabaseURL}
		fc.MigrateOnStart = true
	}
	return fc
}

// parser reads typed values and collects every malformed one
type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(key, fallback string) string {
	if v, ok := p.lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

func (p *parser) int(key string, fallback int) int {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: not an integer", key, v))
		return fallback
	}
	return n
}

func (p *parser) bool(key string, fallback bool) bool {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: not a boolean", key, v))
		return fallback
	}
	return b
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return fallback
	}
	return d
}

func (p *parser) level(key string, fallback slog.Level) slog.Level {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return fallback
	}
	return lvl
}
