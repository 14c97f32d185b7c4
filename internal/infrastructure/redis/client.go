package rediskv

import (
	"github.com/redis/go-redis/v9"
	"github.com/shop-accounts-api/internal/config"
)

// NewClient creates a go-redis client from the application config.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
