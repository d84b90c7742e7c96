package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for the summary cache, or nil when REDIS_ADDR
// is unset or unreachable; callers treat nil as caching disabled
func ConnectRedis(cfg *Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Println("⚠️ REDIS_ADDR not set, summary caching disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unreachable at %s, summary caching disabled: %v", cfg.Redis.Addr, err)
		_ = rdb.Close()
		return nil
	}

	log.Printf("✅ Redis connected [%s]", cfg.Redis.Addr)
	return rdb
}
