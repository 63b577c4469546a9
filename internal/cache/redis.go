package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/form-autofill/internal/types"
)

const redisKeyPrefix = "autofill:classification:"

// Redis is a Store shared by several engine processes. Expiry is delegated
// to Redis; Get still checks the stored timestamp so a changed TTL applies
// to entries written before the change.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewRedis wraps an existing client. A non-positive ttl uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, logger: logger, now: time.Now}
}

// ConnectRedis parses a redis:// URL and verifies the connection.
func ConnectRedis(ctx context.Context, url string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedis(client, ttl, logger), nil
}

// Get returns a fresh entry for key. Redis errors are logged and treated as misses.
func (r *Redis) Get(ctx context.Context, key string) (Entry, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("classification cache read failed", zap.String("key", key), zap.Error(err))
		}
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.logger.Warn("classification cache entry corrupt", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}
	if r.now().Sub(e.Timestamp) >= r.ttl {
		return Entry{}, false
	}
	return e, true
}

// Set stores candidates under key with the TTL as Redis expiry.
func (r *Redis) Set(ctx context.Context, key string, candidates []types.Candidate) {
	raw, err := json.Marshal(Entry{Candidates: candidates, Timestamp: r.now()})
	if err != nil {
		r.logger.Warn("classification cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("classification cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
