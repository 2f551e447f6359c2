package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"lifescript/internal/util"
)

const sessionKey = "lifescript:session"

// RedisSessionStore keeps the active-session marker in Redis with TTL.
// The marker lives under one fixed key, so writing a new session
// replaces the previous one.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

type sessionRecord struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(addr, password string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// NewSession writes a fresh token for username, replacing any marker.
func (s *RedisSessionStore) NewSession(username string) (string, error) {
	record := sessionRecord{Token: util.NewID(), Username: username}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, sessionKey, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return record.Token, nil
}

// UsernameByToken resolves the token against the stored marker.
func (s *RedisSessionStore) UsernameByToken(token string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	payload, err := s.client.Get(ctx, sessionKey).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var record sessionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return "", false, err
	}
	if token == "" || token != record.Token {
		return "", false, nil
	}
	return record.Username, true, nil
}

// DeleteSession clears the marker when the token matches it.
func (s *RedisSessionStore) DeleteSession(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	payload, err := s.client.Get(ctx, sessionKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	var record sessionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return err
	}
	if token != record.Token {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
