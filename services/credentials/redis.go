package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"travelstore/models"
	"travelstore/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedisStore keeps credentials in redis so every storefront process sees the
// same values; changes are announced on a pub/sub channel.
type RedisStore struct {
	client    *redis.Client
	namespace string
	origin    string
	logger    *zap.Logger
}

// NewRedisStore returns a store under namespace (e.g. "storefront").
func NewRedisStore(client *redis.Client, namespace string, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		origin:    uuid.New().String(),
		logger:    utils.OrNop(logger),
	}
}

func (s *RedisStore) Origin() string { return s.origin }

func (s *RedisStore) key(name string) string {
	return s.namespace + ":" + name
}

func (s *RedisStore) channel() string {
	return s.namespace + utils.CredentialChannelSuffix
}

func (s *RedisStore) Load(ctx context.Context) (models.Credentials, error) {
	vals, err := s.client.MGet(ctx,
		s.key(utils.AccessTokenKey),
		s.key(utils.RefreshTokenKey),
		s.key(utils.IsAuthenticatedKey),
	).Result()
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	str := func(v interface{}) string {
		if s, ok := v.(string); ok {
			return s
		}
		return ""
	}
	return models.Credentials{
		AccessToken:   str(vals[0]),
		RefreshToken:  str(vals[1]),
		Authenticated: str(vals[2]) == "true",
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, creds models.Credentials) error {
	flag := "false"
	if creds.Authenticated {
		flag = "true"
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(utils.AccessTokenKey), creds.AccessToken, 0)
		pipe.Set(ctx, s.key(utils.RefreshTokenKey), creds.RefreshToken, 0)
		pipe.Set(ctx, s.key(utils.IsAuthenticatedKey), flag, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	s.publish(ctx)
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	err := s.client.Del(ctx,
		s.key(utils.AccessTokenKey),
		s.key(utils.RefreshTokenKey),
		s.key(utils.IsAuthenticatedKey),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	s.publish(ctx)
	return nil
}

// publish failures only delay other tabs until their next window expires.
func (s *RedisStore) publish(ctx context.Context) {
	payload, _ := json.Marshal(Change{Origin: s.origin})
	if err := s.client.Publish(ctx, s.channel(), payload).Err(); err != nil {
		s.logger.Warn("credential change not published", zap.Error(err))
	}
}

func (s *RedisStore) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	sub := s.client.Subscribe(ctx, s.channel())
	// Wait for the subscription to be confirmed so no change is missed after return.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to credential changes: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					s.logger.Warn("malformed credential change", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				fn(change)
			}
		}
	}()
	return cancel, nil
}
