package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mse-observer/src/logger"
	"mse-observer/src/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares the last snapshot between processes. Values are stored
// as JSON under a single key with a TTL.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedisCache(cfg models.MCacheConfig, log *logger.Logger) *RedisCache {
	addr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &RedisCache{
		client: client,
		key:    cfg.RedisKey,
		ttl:    time.Duration(cfg.TTLMinutes) * time.Minute,
		logger: log,
	}
}

// -----------------------------------------------------------------------------

// Init checks connectivity.
func (r *RedisCache) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", r.client.Options().Addr, err)
	}
	r.logger.Info("Connected to Redis at %s", r.client.Options().Addr)
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Get(ctx context.Context) (models.MSnapshot, bool) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warning("Redis get %s failed: %v", r.key, err)
		}
		return models.MSnapshot{}, false
	}

	var snapshot models.MSnapshot
	if err := json.Unmarshal(val, &snapshot); err != nil {
		r.logger.Warning("Discarding undecodable cached snapshot: %v", err)
		return models.MSnapshot{}, false
	}
	return snapshot, true
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Set(ctx context.Context, snapshot models.MSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, r.ttl).Err()
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Close() error {
	return r.client.Close()
}
