package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/authsamples/internal/dependencies/clock"
	"github.com/mcoot/authsamples/internal/dependencies/random"
	"github.com/mcoot/authsamples/internal/middleware"
	"github.com/mcoot/authsamples/internal/services/accounts"
	"github.com/mcoot/authsamples/internal/services/auth"
	"github.com/mcoot/authsamples/internal/services/password"
	"github.com/mcoot/authsamples/internal/storage"
	"github.com/mcoot/authsamples/internal/storage/memory"
	"github.com/mcoot/authsamples/internal/storage/postgres"
	redisstorage "github.com/mcoot/authsamples/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Hasher password.Hasher

	// Services
	AccountService *accounts.Service
	AuthService    *auth.Service

	// Cookies signs the web session cookie
	Cookies *middleware.SessionCookie
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
	// MigrateOnStart applies pending migrations before connecting to PostgreSQL
	MigrateOnStart bool
	// BcryptCost is the password hashing work factor; zero uses bcrypt's default
	BcryptCost int
	// CookieHashKey signs session cookies; empty generates a per-process key
	CookieHashKey []byte
	// CookieSecure marks the session cookie Secure
	CookieSecure bool
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	deps := dependencies{
		store:   store,
		clock:   clock.New(),
		random:  random.New(),
		hasher:  password.NewBcrypt(cfg.BcryptCost),
		cookies: middleware.NewSessionCookie(cfg.CookieHashKey, authCfg.SessionDuration, cfg.CookieSecure),
		authCfg: authCfg,
		logger:  logger,
	}
	return newWithDependencies(deps), nil
}

func newStorage(cfg Config, logger *slog.Logger) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if cfg.MigrateOnStart {
			migrator, err := postgres.NewMigrator(cfg.PostgresConfig.URL, logger)
			if err != nil {
				return nil, err
			}
			if err := migrator.Up(ctx); err != nil {
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		return postgres.New(ctx, *cfg.PostgresConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", storageType)
	}
}

// dependencies are the leaf components every App is built from
type dependencies struct {
	store   storage.Storage
	clock   clock.Clock
	random  random.Random
	hasher  password.Hasher
	cookies *middleware.SessionCookie
	authCfg auth.Config
	logger  *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) *App {
	accountService := accounts.New(deps.store, deps.hasher, deps.clock, deps.logger)
	authService := auth.New(deps.store, deps.clock, deps.random, deps.logger, deps.authCfg)

	return &App{
		Storage:        deps.store,
		Clock:          deps.clock,
		Random:         deps.random,
		Hasher:         deps.hasher,
		AccountService: accountService,
		AuthService:    authService,
		Cookies:        deps.cookies,
	}
}

// Close releases storage connections
func (a *App) Close() error {
	return a.Storage.Close()
}
