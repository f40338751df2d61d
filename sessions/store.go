// Package sessions keeps server-side login sessions in Redis.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("session not found")

// Identity is what an authenticated session knows about its caller.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

type Store interface {
	Create(ctx context.Context, id Identity) (string, error)
	Get(ctx context.Context, sid string) (Identity, error)
	Destroy(ctx context.Context, sid string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(sid string) string { return "session:" + sid }

func (s *RedisStore) Create(ctx context.Context, id Identity) (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	sid := uuid.NewString()
	if err := s.rdb.Set(ctx, key(sid), b, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

func (s *RedisStore) Get(ctx context.Context, sid string) (Identity, error) {
	b, err := s.rdb.Get(ctx, key(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrNoSession
	}
	if err != nil {
		return Identity{}, err
	}
	var id Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return Identity{}, fmt.Errorf("decode session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Destroy(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, key(sid)).Err()
}
