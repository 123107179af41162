// Package redis provides a redis-backed implementation of store.DocumentStore.
//
// Every document is a redis string under "<prefix><key>". Listing uses SCAN
// so it never blocks the server on large keyspaces.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/getmockd/mockapi/pkg/store"
)

// DefaultPrefix namespaces all keys written by mockapi.
const DefaultPrefix = "mockapi:"

const scanCount = 256

// Config holds connection settings.
type Config struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Options converts the config into go-redis client options.
func (c Config) Options() *redis.Options {
	return &redis.Options{
		Addr:     c.Addr,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
	}
}

// Store implements store.DocumentStore and store.ExpiringStore on redis.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// New connects to redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	rdb := redis.NewClient(cfg.Options())
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewWithClient(rdb, cfg.Prefix), nil
}

// NewWithClient wraps an existing client. An empty prefix means DefaultPrefix.
func NewWithClient(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) redisKey(key string) (string, error) {
	if err := store.ValidateKey(key); err != nil {
		return "", fmt.Errorf("%q: %w", key, err)
	}
	return s.prefix + key, nil
}

// Get returns the document stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	rk, err := s.redisKey(key)
	if err != nil {
		return nil, err
	}
	data, err := s.rdb.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Put stores the document without expiry.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	return s.PutWithTTL(ctx, key, data, 0)
}

// PutWithTTL stores the document with a redis expiry. ttl <= 0 never expires.
func (s *Store) PutWithTTL(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	rk, err := s.redisKey(key)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, rk, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the document stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	rk, err := s.redisKey(key)
	if err != nil {
		return err
	}
	n, err := s.rdb.Del(ctx, rk).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// List returns the sorted keys starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	pattern := s.prefix + escapeGlob(prefix) + "*"
	keys := make([]string, 0)
	seen := make(map[string]struct{})

	iter := s.rdb.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		k := strings.TrimPrefix(iter.Val(), s.prefix)
		// SCAN may return a key more than once.
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %q: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// escapeGlob escapes redis MATCH metacharacters.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ensure Store implements the store interfaces.
var (
	_ store.DocumentStore = (*Store)(nil)
	_ store.ExpiringStore = (*Store)(nil)
)
