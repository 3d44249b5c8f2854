package repository

import (
	"context"
	"fmt"
	"time"

	"radiantbloom/internal/config"

	"github.com/redis/go-redis/v9"
)

type RedisSlotLocker struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	client := redis.NewClient(options)

	return client
}

func NewRedisSlotLocker(client *redis.Client) *RedisSlotLocker {
	return &RedisSlotLocker{client: client}
}

// TryLock takes the advisory slot lock with SETNX semantics. A false
// result means another confirmation currently holds the slot.
func (r *RedisSlotLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	acquired, err := r.client.SetNX(ctx, lockKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return acquired, nil
}

func (r *RedisSlotLocker) Unlock(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, lockKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}

// Allow counts requests per caller key within a fixed window.
func (r *RedisSlotLocker) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	counter := fmt.Sprintf("rate_limit:%s", key)
	count, err := r.client.Incr(ctx, counter).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, counter, window)
	}

	return count <= int64(limit), nil
}

func lockKey(key string) string {
	return "slot_lock:" + key
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
