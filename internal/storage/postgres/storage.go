package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/storage"
)

// uniqueViolation is the SQLSTATE for a unique index conflict
const uniqueViolation = "23505"

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection
func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewWithPool(pool), nil
}

// NewWithPool creates a storage around an existing pool
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Close releases the pool
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	// email_normalized is written from model.NormalizeEmail, never by the database
	const query = `SELECT id::text, email, password_hash, created_at FROM accounts WHERE email_normalized = $1`
	return s.scanAccount(s.pool.QueryRow(ctx, query, model.NormalizeEmail(email)))
}

func (s *Storage) FindAccountByID(ctx context.Context, id model.AccountID) (*model.Account, error) {
	numeric, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return nil, model.ErrAccountNotFound
	}

	const query = `SELECT id::text, email, password_hash, created_at FROM accounts WHERE id = $1`
	return s.scanAccount(s.pool.QueryRow(ctx, query, numeric))
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	const query = `INSERT INTO accounts (email, email_normalized, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text`

	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	saved := *account
	saved.CreatedAt = createdAt

	var id string
	err := s.pool.QueryRow(ctx, query, account.Email, model.NormalizeEmail(account.Email), account.PasswordHash, createdAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, model.ErrEmailTaken
		}
		return nil, err
	}

	saved.ID = model.AccountID(id)
	return &saved, nil
}

func (s *Storage) scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		a  model.Account
		id string
	)
	if err := row.Scan(&id, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	a.ID = model.AccountID(id)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	accountID, err := strconv.ParseInt(string(session.Principal.AccountID), 10, 64)
	if err != nil {
		return fmt.Errorf("session account id %q: %w", session.Principal.AccountID, model.ErrAccountNotFound)
	}

	const query = `INSERT INTO sessions (token, account_id, email, roles, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at`
	_, err = s.pool.Exec(ctx, query,
		session.Token,
		accountID,
		session.Principal.Email,
		session.Principal.Roles,
		session.CreatedAt,
		session.ExpiresAt,
	)
	return err
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	const query = `SELECT token, account_id::text, email, roles, created_at, expires_at
		FROM sessions WHERE token = $1`

	var (
		session   model.Session
		accountID string
	)
	err := s.pool.QueryRow(ctx, query, token).Scan(
		&session.Token,
		&accountID,
		&session.Principal.Email,
		&session.Principal.Roles,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	session.Principal.AccountID = model.AccountID(accountID)
	session.CreatedAt = session.CreatedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
