package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "emarket"

// Redis keeps entries as plain string keys under a namespace prefix.
type Redis struct {
	rdb       *redis.Client
	namespace string
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, password string, db int, namespace string) (*Redis, error) {
	if strings.TrimSpace(addr) == "" {
		addr = "127.0.0.1:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedis(rdb, namespace), nil
}

// NewRedis wraps an existing client. An empty namespace uses "emarket".
func NewRedis(rdb *redis.Client, namespace string) *Redis {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Redis{rdb: rdb, namespace: namespace}
}

func (r *Redis) key(k string) string {
	return r.namespace + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

func (r *Redis) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	vals, err := r.rdb.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

func (r *Redis) MultiSet(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	pairs := make([]any, 0, len(entries)*2)
	for k, v := range entries {
		pairs = append(pairs, r.key(k), v)
	}
	return r.rdb.MSet(ctx, pairs...).Err()
}

func (r *Redis) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.rdb.Del(ctx, full...).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
