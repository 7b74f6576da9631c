// File: utils/cache.go
package utils

import (
	"context"
	"time"

	"tourbot/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheClient is the Redis client backing the search cache.
var CacheClient *redis.Client

// InitCache connects the search cache client. An empty REDIS_ADDR or an
// unreachable server leaves the cache disabled instead of stopping the bot.
func InitCache() {
	if config.AppConfig.RedisAddr == "" {
		GetLogger().Info("InitCache: REDIS_ADDR is empty, search cache disabled")
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		GetLogger().Warn("InitCache: failed to connect to Redis, search cache disabled", zap.Error(err))
		_ = client.Close()
		return
	}
	CacheClient = client
}

// GetCacheClient returns the search cache client, or nil when caching is disabled.
func GetCacheClient() *redis.Client {
	return CacheClient
}
