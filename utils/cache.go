// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"travelstore/config"

	"github.com/go-redis/redis/v8"
)

// CredentialCacheClient is the redis client backing shared credential storage.
var CredentialCacheClient *redis.Client

// InitCredentialCache initializes the redis client for credential storage (using DB from AppConfig).
func InitCredentialCache() {
	CredentialCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCredentialDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CredentialCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Credentials): %v", err)
	}
}

// GetCredentialCacheClient returns the redis client for credential storage.
func GetCredentialCacheClient() *redis.Client {
	if CredentialCacheClient == nil {
		InitCredentialCache()
	}
	return CredentialCacheClient
}
