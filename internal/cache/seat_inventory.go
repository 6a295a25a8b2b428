package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

type SeatInventory interface {
	// 預熱：把某艙等的座位、價格與已售座位載入 Redis
	WarmUp(ctx context.Context, classOfferingID int, price float64, seatIDs []int, taken map[int]int) error
	// 佔位：檢查座位存在且未被佔用後寫入 (使用Lua腳本確保原子性)，回傳單價
	ClaimSeat(ctx context.Context, classOfferingID int, seatID int, userID int) (float64, error)
	// 回滾：釋放座位
	ReleaseSeat(ctx context.Context, classOfferingID int, seatID int) error
	// 已被佔用的座位
	TakenSeats(ctx context.Context, classOfferingID int) ([]int, error)
	// 車票流水號
	NextTicketID(ctx context.Context) (int, error)
	// 流水號至少從 floor 之後開始（Redis 資料遺失後由資料庫最大 id 補回）
	EnsureTicketSeq(ctx context.Context, floor int) error
}

type RedisSeatInventoryImpl struct {
	client *redis.Client
}

func NewRedisSeatInventory(client *redis.Client) SeatInventory {
	return &RedisSeatInventoryImpl{
		client: client,
	}
}

// 艙等資訊 key
func (m *RedisSeatInventoryImpl) getInfoKey(classOfferingID int) string {
	return fmt.Sprintf("class:%d:info", classOfferingID)
}

// 座位集合 key
func (m *RedisSeatInventoryImpl) getSeatsKey(classOfferingID int) string {
	return fmt.Sprintf("class:%d:seats", classOfferingID)
}

// 已佔用座位 key：seat_id -> user_id
func (m *RedisSeatInventoryImpl) getTakenKey(classOfferingID int) string {
	return fmt.Sprintf("class:%d:taken", classOfferingID)
}

const ticketSeqKey = "tickets:seq"

func (m *RedisSeatInventoryImpl) WarmUp(ctx context.Context, classOfferingID int, price float64, seatIDs []int, taken map[int]int) error {
	infoKey := m.getInfoKey(classOfferingID)
	seatsKey := m.getSeatsKey(classOfferingID)
	takenKey := m.getTakenKey(classOfferingID)

	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, infoKey, seatsKey, takenKey)
		pipe.HSet(ctx, infoKey, "price", price)
		if len(seatIDs) > 0 {
			members := make([]interface{}, len(seatIDs))
			for i, id := range seatIDs {
				members[i] = id
			}
			pipe.SAdd(ctx, seatsKey, members...)
		}
		if len(taken) > 0 {
			values := make(map[string]interface{}, len(taken))
			for seatID, userID := range taken {
				values[strconv.Itoa(seatID)] = userID
			}
			pipe.HSet(ctx, takenKey, values)
		}
		return nil
	})
	return err
}

/*
*

	佔用座位 (使用Lua腳本確保原子性)
	1. 檢查艙等已預熱
	2. 檢查座位屬於此艙等
	3. 檢查座位未被佔用
	4. 寫入佔用紀錄
*/
func (m *RedisSeatInventoryImpl) ClaimSeat(ctx context.Context, classOfferingID int, seatID int, userID int) (float64, error) {
	script := `
		local info_key = KEYS[1]
		local seats_key = KEYS[2]
		local taken_key = KEYS[3]

		local seat_id = ARGV[1]
		local user_id = ARGV[2]

		-- 1. 艙等資訊
		local price = redis.call('HGET', info_key, 'price')
		if not price then
			return {-3, '0'} -- 錯誤：尚未預熱
		end

		-- 2. 座位是否存在
		if redis.call('SISMEMBER', seats_key, seat_id) == 0 then
			return {-2, '0'} -- 錯誤：座位不存在
		end

		-- 3. 座位是否已被佔用
		if redis.call('HSETNX', taken_key, seat_id, user_id) == 0 then
			return {-1, '0'} -- 錯誤：座位已被訂走
		end

		return {1, tostring(price)}
	`

	keys := []string{m.getInfoKey(classOfferingID), m.getSeatsKey(classOfferingID), m.getTakenKey(classOfferingID)}
	result, err := m.client.Eval(ctx, script, keys, seatID, userID).Result()
	if err != nil {
		return 0, err
	}

	resSlice, ok := result.([]interface{})
	if !ok || len(resSlice) != 2 {
		return 0, errors.New("unexpected result")
	}
	code, _ := resSlice[0].(int64)
	priceStr, _ := resSlice[1].(string)

	switch code {
	case 1:
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price: %w", err)
		}
		return price, nil
	case -1:
		return 0, apperrors.ErrSeatUnavailable
	case -2:
		return 0, apperrors.ErrSeatNotFound
	case -3:
		return 0, apperrors.ErrSeatMapNotWarmed
	default:
		return 0, errors.New("unexpected result")
	}
}

func (m *RedisSeatInventoryImpl) ReleaseSeat(ctx context.Context, classOfferingID int, seatID int) error {
	return m.client.HDel(ctx, m.getTakenKey(classOfferingID), strconv.Itoa(seatID)).Err()
}

func (m *RedisSeatInventoryImpl) TakenSeats(ctx context.Context, classOfferingID int) ([]int, error) {
	exists, err := m.client.Exists(ctx, m.getInfoKey(classOfferingID)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, apperrors.ErrSeatMapNotWarmed
	}

	fields, err := m.client.HKeys(ctx, m.getTakenKey(classOfferingID)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid seat id %q: %w", f, err)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *RedisSeatInventoryImpl) NextTicketID(ctx context.Context) (int, error) {
	id, err := m.client.Incr(ctx, ticketSeqKey).Result()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (m *RedisSeatInventoryImpl) EnsureTicketSeq(ctx context.Context, floor int) error {
	script := `
		local current = tonumber(redis.call('GET', KEYS[1]) or '0')
		local floor = tonumber(ARGV[1])
		if current < floor then
			redis.call('SET', KEYS[1], tostring(floor))
			return floor
		end
		return current
	`
	return m.client.Eval(ctx, script, []string{ticketSeqKey}, floor).Err()
}
