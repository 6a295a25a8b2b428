package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bus-ticket-booking/internal/gateway"
	"bus-ticket-booking/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TokenStore 登入後的 bearer token；Gateway 透過 TokenSource 讀取
type TokenStore interface {
	gateway.TokenSource
	// 登入成功後保存；ttl 為 0 代表不過期
	Save(ctx context.Context, token string, ttl time.Duration) error
	// 登出或收到 401 時清除
	Clear(ctx context.Context) error
}

type RedisTokenStoreImpl struct {
	client *redis.Client
	key    string
}

func NewRedisTokenStore(client *redis.Client, key string) TokenStore {
	return &RedisTokenStoreImpl{
		client: client,
		key:    key,
	}
}

func (s *RedisTokenStoreImpl) Save(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Token 尚未登入時回傳空字串
func (s *RedisTokenStoreImpl) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStoreImpl) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// ClearOnUnauthorized 給 gateway.HTTPGatewayOptions.OnUnauthorized 使用：session 過期時丟掉 token
func ClearOnUnauthorized(store TokenStore) func(ctx context.Context) {
	return func(ctx context.Context) {
		log := logger.WithComponent("auth")
		if err := store.Clear(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to clear expired token", zap.Error(err))
			return
		}
		log.Info("session expired, token cleared")
	}
}
