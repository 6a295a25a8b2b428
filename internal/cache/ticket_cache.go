package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

const (
	PendingTicketTTL  = time.Hour
	IdempotencyKeyTTL = 24 * time.Hour
)

// TicketCache worker 寫入資料庫前，剛建立的車票先放在 Redis
type TicketCache interface {
	PutPending(ctx context.Context, ticket *model.Ticket) error
	GetPending(ctx context.Context, ticketID int) (*model.Ticket, error)
	DeletePending(ctx context.Context, ticketID int) error
	// 同一使用者重送相同 Idempotency-Key 時回傳第一次建立的車票 id；
	// 第一次呼叫時保留 key 並回傳 (0, true)
	ReserveIdempotencyKey(ctx context.Context, userID int, key string) (ticketID int, reserved bool, err error)
	CompleteIdempotencyKey(ctx context.Context, userID int, key string, ticketID int) error
	ReleaseIdempotencyKey(ctx context.Context, userID int, key string) error
}

type RedisTicketCacheImpl struct {
	client *redis.Client
}

func NewRedisTicketCache(client *redis.Client) TicketCache {
	return &RedisTicketCacheImpl{client: client}
}

func (c *RedisTicketCacheImpl) getPendingKey(ticketID int) string {
	return fmt.Sprintf("ticket:%d:pending", ticketID)
}

func (c *RedisTicketCacheImpl) getIdempotencyKey(userID int, key string) string {
	return fmt.Sprintf("idempotency:%d:%s", userID, key)
}

func (c *RedisTicketCacheImpl) PutPending(ctx context.Context, ticket *model.Ticket) error {
	payload, err := json.Marshal(pendingTicket{Ticket: ticket, UserID: ticket.UserID})
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	return c.client.Set(ctx, c.getPendingKey(ticket.ID), payload, PendingTicketTTL).Err()
}

// pendingTicket Ticket.UserID 不輸出 JSON，另外保存
type pendingTicket struct {
	Ticket *model.Ticket `json:"ticket"`
	UserID int           `json:"user_id"`
}

func (c *RedisTicketCacheImpl) GetPending(ctx context.Context, ticketID int) (*model.Ticket, error) {
	raw, err := c.client.Get(ctx, c.getPendingKey(ticketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}

	var p pendingTicket
	if err := json.Unmarshal(raw, &p); err != nil || p.Ticket == nil {
		return nil, fmt.Errorf("invalid pending ticket %d: %v", ticketID, err)
	}
	p.Ticket.UserID = p.UserID
	return p.Ticket, nil
}

func (c *RedisTicketCacheImpl) DeletePending(ctx context.Context, ticketID int) error {
	return c.client.Del(ctx, c.getPendingKey(ticketID)).Err()
}

func (c *RedisTicketCacheImpl) ReserveIdempotencyKey(ctx context.Context, userID int, key string) (int, bool, error) {
	k := c.getIdempotencyKey(userID, key)

	ok, err := c.client.SetNX(ctx, k, 0, IdempotencyKeyTTL).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}

	ticketID, err := c.client.Get(ctx, k).Int()
	if errors.Is(err, redis.Nil) {
		// 剛好過期：當作新的請求
		return 0, true, c.client.Set(ctx, k, 0, IdempotencyKeyTTL).Err()
	}
	if err != nil {
		return 0, false, err
	}
	return ticketID, false, nil
}

func (c *RedisTicketCacheImpl) CompleteIdempotencyKey(ctx context.Context, userID int, key string, ticketID int) error {
	return c.client.Set(ctx, c.getIdempotencyKey(userID, key), ticketID, IdempotencyKeyTTL).Err()
}

func (c *RedisTicketCacheImpl) ReleaseIdempotencyKey(ctx context.Context, userID int, key string) error {
	return c.client.Del(ctx, c.getIdempotencyKey(userID, key)).Err()
}
