package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// SessionStore sandbox 後端的 bearer token -> user id
type SessionStore interface {
	Issue(ctx context.Context, token string, userID int, ttl time.Duration) error
	UserID(ctx context.Context, token string) (int, error)
	Revoke(ctx context.Context, token string) error
}

type RedisSessionStoreImpl struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &RedisSessionStoreImpl{client: client}
}

func (s *RedisSessionStoreImpl) getTokenKey(token string) string {
	return fmt.Sprintf("auth:token:%s", token)
}

func (s *RedisSessionStoreImpl) Issue(ctx context.Context, token string, userID int, ttl time.Duration) error {
	if token == "" || userID <= 0 {
		return apperrors.ErrInvalidInput
	}
	return s.client.Set(ctx, s.getTokenKey(token), userID, ttl).Err()
}

// UserID token 不存在或已過期時回傳 ErrUnauthorized
func (s *RedisSessionStoreImpl) UserID(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, apperrors.ErrUnauthorized
	}
	userID, err := s.client.Get(ctx, s.getTokenKey(token)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, apperrors.ErrUnauthorized
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *RedisSessionStoreImpl) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.getTokenKey(token)).Err()
}
