package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key written by RedisCache.
const DefaultNamespace = "predictor"

// RedisCache implements Cache using Redis as a backend.
// It lets several predictor instances share memoized results.
//
// With a zero TTL entries never expire, which keeps the "computed once"
// guarantee across instances. A positive TTL trades that for bounded memory.
type RedisCache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	mu        sync.RWMutex
}

// RedisOptions configures NewRedisCache.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	Namespace string
}

// NewRedisCache creates a Redis-backed cache and verifies the connection.
//
// Returns an error if the options are invalid or Redis cannot be reached.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if opts.DB < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}
	if opts.TTL < 0 {
		return nil, errors.New("redis ttl must be >= 0")
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &RedisCache{
		client:    client,
		namespace: opts.Namespace,
		ttl:       opts.TTL,
	}, nil
}

func (r *RedisCache) redisKey(key Key) string {
	return r.namespace + ":" + key.String()
}

// Get retrieves the entry stored under key.
//
// Returns:
//   - entry: the stored entry (zero value if not found)
//   - found: true if the key exists
//   - error: non-nil on transport or decoding failures (not on a miss)
func (r *RedisCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	client := r.current()
	if client == nil {
		return Entry{}, false, redis.ErrClosed
	}

	data, err := client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to get entry from redis: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("failed to unmarshal entry: %w", err)
	}

	return entry, true, nil
}

// Put stores entry under key with the configured TTL.
func (r *RedisCache) Put(ctx context.Context, key Key, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	client := r.current()
	if client == nil {
		return redis.ErrClosed
	}

	if err := client.Set(ctx, r.redisKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store entry in redis: %w", err)
	}

	return nil
}

func (r *RedisCache) current() *redis.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// Close closes the Redis client connection.
// It is safe to call multiple times.
func (r *RedisCache) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}

	err := r.client.Close()
	r.client = nil
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

// Ping checks the Redis connection health.
func (r *RedisCache) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.client == nil {
		return redis.ErrClosed
	}
	return r.client.Ping(ctx).Err()
}
