package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	keys   keys
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		keys:   newKeys(cfg.KeyPrefix),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	id, err := s.client.Get(ctx, s.keys.emailIndex(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	return s.FindAccountByID(ctx, model.AccountID(id))
}

func (s *Storage) FindAccountByID(ctx context.Context, id model.AccountID) (*model.Account, error) {
	data, err := s.client.Get(ctx, s.keys.account(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// saveAccountScript claims the email index key and writes the account
// record in one atomic step. Returns 0 when the email is already taken.
var saveAccountScript = redis.NewScript(`
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2])
return 1
`)

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	seq, err := s.client.Incr(ctx, s.keys.accountSeq()).Result()
	if err != nil {
		return nil, err
	}

	saved := *account
	saved.ID = model.AccountID(strconv.FormatInt(seq, 10))

	data, err := json.Marshal(&saved)
	if err != nil {
		return nil, err
	}

	// Whoever sets the index key owns the address
	scriptKeys := []string{s.keys.emailIndex(saved.Email), s.keys.account(saved.ID)}
	claimed, err := saveAccountScript.Run(ctx, s.client, scriptKeys, string(saved.ID), data).Int()
	if err != nil {
		return nil, err
	}
	if claimed == 0 {
		return nil, model.ErrEmailTaken
	}

	return &saved, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Key TTL mirrors the session lifetime; the expiry index covers clocks
	// that disagree with Redis. A zero TTL would mean "never expires", so a
	// session with no lifetime is not stored at all.
	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if ttl <= 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.session(session.Token), data, ttl)
	pipe.ZAdd(ctx, s.keys.sessionExpiry(), redis.Z{
		Score:  float64(session.ExpiresAt.Unix()),
		Member: session.Token,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	data, err := s.client.Get(ctx, s.keys.session(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keys.session(token))
	pipe.ZRem(ctx, s.keys.sessionExpiry(), token)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	indexKey := s.keys.sessionExpiry()

	// Strictly before the current second, matching Session.Expired
	tokens, err := s.client.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	if len(tokens) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	members := make([]any, len(tokens))
	for i, token := range tokens {
		pipe.Del(ctx, s.keys.session(token))
		members[i] = token
	}
	pipe.ZRem(ctx, indexKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return len(tokens), nil
}
