package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StreamKey           = "tickets:stream"
	DeadLetterStreamKey = "tickets:dead"
	ConsumerGroupName   = "ticket-workers"
	ConsumerNamePrefix  = "worker"
)

// 訊息欄位：識別欄位另外存一份，不解 payload 也能在 redis-cli 追查
const (
	fieldTicketID = "ticket_id"
	fieldUserID   = "user_id"
	fieldSeat     = "seat"
	fieldPayload  = "payload"
	fieldReason   = "reason"
	fieldSourceID = "source_id"
)

// 進入 dead-letter stream 的原因
const (
	ReasonMalformed = "malformed"
	ReasonPoison    = "max_deliveries"
	ReasonRejected  = "rejected"
)

// RedisStreamTicketQueueConfig 可注入的逾時與重試設定；nil 或零值時使用預設。
type RedisStreamTicketQueueConfig struct {
	ClaimMinIdleTime time.Duration // PEL 中閒置超過此時間才由 XAUTOCLAIM 領回
	MaxDeliveries    int           // 投遞次數達到上限即移到 dead-letter stream
	ReadBlock        time.Duration // XReadGroup 阻塞時間
	BatchSize        int64
}

func (c *RedisStreamTicketQueueConfig) withDefaults() RedisStreamTicketQueueConfig {
	cfg := RedisStreamTicketQueueConfig{
		ClaimMinIdleTime: 5 * time.Second,
		MaxDeliveries:    5,
		ReadBlock:        2 * time.Second,
		BatchSize:        10,
	}
	if c == nil {
		return cfg
	}
	if c.ClaimMinIdleTime > 0 {
		cfg.ClaimMinIdleTime = c.ClaimMinIdleTime
	}
	if c.MaxDeliveries > 0 {
		cfg.MaxDeliveries = c.MaxDeliveries
	}
	if c.ReadBlock > 0 {
		cfg.ReadBlock = c.ReadBlock
	}
	if c.BatchSize > 0 {
		cfg.BatchSize = c.BatchSize
	}
	return cfg
}

type RedisStreamTicketQueueImpl struct {
	client   *redis.Client
	consumer string
	cfg      RedisStreamTicketQueueConfig
	log      *zap.Logger
}

// NewRedisStreamTicketQueue 建立 Redis Stream 版 TicketQueue。consumerID 為空時產生一個。
func NewRedisStreamTicketQueue(client *redis.Client, consumerID string, config *RedisStreamTicketQueueConfig) (TicketQueue, error) {
	if consumerID == "" {
		consumerID = uuid.NewString()
	}
	q := &RedisStreamTicketQueueImpl{
		client:   client,
		consumer: ConsumerNamePrefix + ":" + consumerID,
		cfg:      config.withDefaults(),
	}
	q.log = logger.WithComponent("mq").With(zap.String("consumer", q.consumer))

	err := client.XGroupCreateMkStream(context.Background(), StreamKey, ConsumerGroupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("ensure consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamTicketQueueImpl) PublishTicket(ctx context.Context, ticket *model.Ticket) error {
	if ticket == nil || ticket.ID <= 0 {
		return fmt.Errorf("%w: ticket without id", apperrors.ErrInvalidInput)
	}
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal ticket %d: %w", ticket.ID, err)
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{
			fieldTicketID: ticket.ID,
			fieldUserID:   ticket.UserID,
			fieldSeat:     fmt.Sprintf("%d:%d", ticket.ClassOfferingID, ticket.SeatID),
			fieldPayload:  string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish ticket %d: %w", ticket.ID, err)
	}
	return nil
}

// SubscribeTickets 新訊息由 XReadGroup 讀取；Nack(requeue) 或 consumer 掛掉留在 PEL 的訊息
// 閒置超過 ClaimMinIdleTime 後由 XAUTOCLAIM 領回重送
func (q *RedisStreamTicketQueueImpl) SubscribeTickets(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		q.readNew(ctx, out)
	}()
	go func() {
		defer wg.Done()
		q.reclaim(ctx, out)
	}()
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (q *RedisStreamTicketQueueImpl) readNew(ctx context.Context, out chan<- Delivery) {
	for ctx.Err() == nil {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    ConsumerGroupName,
			Consumer: q.consumer,
			Streams:  []string{StreamKey, ">"},
			Count:    q.cfg.BatchSize,
			Block:    q.cfg.ReadBlock,
		}).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			q.log.Error("XReadGroup failed", zap.Error(err))
			sleepCtx(ctx, time.Second)
			continue
		}

		for _, stream := range streams {
			if !q.forward(ctx, out, stream.Messages, nil) {
				return
			}
		}
	}
}

func (q *RedisStreamTicketQueueImpl) reclaim(ctx context.Context, out chan<- Delivery) {
	ticker := time.NewTicker(q.cfg.ClaimMinIdleTime)
	defer ticker.Stop()
	start := "0-0"

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		msgs, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   StreamKey,
			Group:    ConsumerGroupName,
			Consumer: q.consumer,
			MinIdle:  q.cfg.ClaimMinIdleTime,
			Start:    start,
			Count:    q.cfg.BatchSize,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return
			}
			q.log.Error("XAutoClaim failed", zap.Error(err))
			continue
		}
		// next 為 0-0 代表 PEL 已掃完一輪
		start = next
		if start == "" {
			start = "0-0"
		}
		if len(msgs) == 0 {
			continue
		}

		if !q.forward(ctx, out, msgs, q.deliveryCounts(ctx, msgs)) {
			return
		}
	}
}

// deliveryCounts 一次查出這批訊息的投遞次數；查詢失敗時回傳 nil，本輪不判斷毒藥訊息
func (q *RedisStreamTicketQueueImpl) deliveryCounts(ctx context.Context, msgs []redis.XMessage) map[string]int64 {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroupName,
		Start:    msgs[0].ID,
		End:      msgs[len(msgs)-1].ID,
		Count:    int64(len(msgs)),
		Consumer: q.consumer,
	}).Result()
	if err != nil {
		q.log.Warn("XPending failed", zap.Error(err))
		return nil
	}
	counts := make(map[string]int64, len(pending))
	for _, p := range pending {
		counts[p.ID] = p.RetryCount
	}
	return counts
}

// forward 解碼並送出；ctx 結束時回傳 false
func (q *RedisStreamTicketQueueImpl) forward(ctx context.Context, out chan<- Delivery, msgs []redis.XMessage, deliveries map[string]int64) bool {
	for _, msg := range msgs {
		if n := deliveries[msg.ID]; n > int64(q.cfg.MaxDeliveries) {
			q.log.Warn("discard poison ticket message",
				zap.String("message_id", msg.ID),
				zap.Int64("deliveries", n),
				zap.Int("max_deliveries", q.cfg.MaxDeliveries),
			)
			q.deadLetter(ctx, msg, ReasonPoison)
			continue
		}

		ticket, err := decodeTicket(msg.Values)
		if err != nil {
			q.log.Warn("malformed ticket message", zap.String("message_id", msg.ID), zap.Error(err))
			q.deadLetter(ctx, msg, ReasonMalformed)
			continue
		}

		select {
		case out <- q.newDelivery(ctx, msg, ticket):
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func decodeTicket(values map[string]interface{}) (*model.Ticket, error) {
	payload, ok := values[fieldPayload].(string)
	if !ok {
		return nil, fmt.Errorf("missing %s", fieldPayload)
	}
	var ticket model.Ticket
	if err := json.Unmarshal([]byte(payload), &ticket); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	id, err := intField(values, fieldTicketID)
	if err != nil {
		return nil, err
	}
	if id <= 0 || id != ticket.ID {
		return nil, fmt.Errorf("ticket id %d does not match payload id %d", id, ticket.ID)
	}

	// Ticket.UserID 不輸出 JSON，從欄位補回
	ticket.UserID, err = intField(values, fieldUserID)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func intField(values map[string]interface{}, name string) (int, error) {
	raw, ok := values[name].(string)
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return n, nil
}

// deadLetter 原訊息連同原因寫入 dead-letter stream 後 XAck，兩步在同一個 MULTI 內
func (q *RedisStreamTicketQueueImpl) deadLetter(ctx context.Context, msg redis.XMessage, reason string) {
	values := make(map[string]interface{}, len(msg.Values)+2)
	for k, v := range msg.Values {
		values[k] = v
	}
	values[fieldReason] = reason
	values[fieldSourceID] = msg.ID

	ctx = context.WithoutCancel(ctx)
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: DeadLetterStreamKey, Values: values})
		pipe.XAck(ctx, StreamKey, ConsumerGroupName, msg.ID)
		return nil
	})
	if err != nil {
		q.log.Error("dead-letter failed", zap.String("message_id", msg.ID), zap.String("reason", reason), zap.Error(err))
	}
}

func (q *RedisStreamTicketQueueImpl) newDelivery(ctx context.Context, msg redis.XMessage, ticket *model.Ticket) Delivery {
	log := q.log.With(zap.String("message_id", msg.ID), zap.Int("ticket_id", ticket.ID))
	// 訂閱結束後 worker 仍可能回報結果
	ackCtx := context.WithoutCancel(ctx)

	return Delivery{
		Data: ticket,
		Ack: func() {
			if err := q.client.XAck(ackCtx, StreamKey, ConsumerGroupName, msg.ID).Err(); err != nil {
				log.Error("XAck failed", zap.Error(err))
			}
		},
		Nack: func(requeue bool) {
			if requeue {
				// 留在 PEL，等 XAUTOCLAIM 領回
				log.Info("ticket requeued", zap.Duration("claim_min_idle", q.cfg.ClaimMinIdleTime))
				return
			}
			q.deadLetter(ackCtx, msg, ReasonRejected)
		},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
