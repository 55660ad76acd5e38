package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"valuescout/internal/config"
	"valuescout/internal/logging"
	"valuescout/internal/model"
	"valuescout/internal/utils"
)

// RedisCache stores analysis and search results as JSON
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to Redis. It returns an error when the URL is
// empty or the server does not answer a ping.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisCache, error) {
	logger = logging.OrNop(logger)
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL not configured")
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.DB

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis connected", zap.Int("db", cfg.DB), zap.Duration("ttl", cfg.TTL))

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

// Get loads key into dest. found is false on a cache miss.
func (r *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !r.IsAvailable() {
		return false, fmt.Errorf("redis client not available")
	}

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("json unmarshal error: %w", err)
	}
	return true, nil
}

// Set stores value under key with the configured TTL
func (r *RedisCache) Set(ctx context.Context, key string, value any) error {
	if !r.IsAvailable() {
		return fmt.Errorf("redis client not available")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	if !r.IsAvailable() {
		return nil
	}
	return r.client.Close()
}

// IsAvailable reports whether the cache is connected
func (r *RedisCache) IsAvailable() bool {
	return r != nil && r.client != nil
}

// Stats returns connection status for the health endpoint
func (r *RedisCache) Stats(ctx context.Context) map[string]any {
	if !r.IsAvailable() {
		return map[string]any{"status": "unavailable"}
	}
	keys, _ := r.client.DBSize(ctx).Result()
	return map[string]any{
		"status":      "connected",
		"ttl_seconds": int(r.ttl.Seconds()),
		"keys":        keys,
	}
}

// AnalysisKey is the cache key for a category analysis
func AnalysisKey(country, query string) string {
	return fmt.Sprintf("analysis:%s:%s", country, utils.NormalizeQuery(query))
}

// SearchKey is the cache key for a product search. The inputs are hashed
// because user values and locations are unbounded.
func SearchKey(country, query string, userValues map[string]any, loc *model.UserLocation) string {
	payload, _ := json.Marshal(struct {
		Query      string              `json:"q"`
		Country    string              `json:"c"`
		UserValues map[string]any      `json:"v"`
		Location   *model.UserLocation `json:"l"`
	}{utils.NormalizeQuery(query), country, userValues, loc})

	sum := sha256.Sum256(payload)
	return "search:" + hex.EncodeToString(sum[:])
}
