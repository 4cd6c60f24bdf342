// Package session keeps server-side login sessions and resolves a session
// token into an access.Principal.
//
// The role set is captured once at login and cached with the session. It is
// not re-read from storage on later requests, so a role change or a ban only
// takes effect for that user after the next login.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists principals by session id.
type Store interface {
	Create(ctx context.Context, p access.Principal) (string, error)
	Get(ctx context.Context, sessionID string) (access.Principal, error)
	Delete(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// RedisStore implements Store with one JSON value per session, expiring after ttl.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		prefix: "session:",
	}
}

// NewRedisClient parses redisURL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (s *RedisStore) Create(ctx context.Context, p access.Principal) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sessionID := uuid.NewString()
	if err := s.client.Set(ctx, s.prefix+sessionID, data, s.ttl).Err(); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (access.Principal, error) {
	data, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return access.Anonymous, ErrSessionNotFound
	}
	if err != nil {
		return access.Anonymous, err
	}

	var p access.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return access.Anonymous, err
	}
	return p, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.prefix+sessionID).Err()
}

func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}
