package seatmap

import (
	"context"
	"fmt"
	"sync"

	"bus-ticket-booking/internal/gateway"
	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

// State 座位表載入狀態
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Snapshot 某一時刻的載入結果；Loaded 且 SeatMap 為空代表後端沒有配置座位，
// Failed 代表請求失敗（可由使用者重試），兩者不會混淆
type Snapshot struct {
	State   State
	SeatMap *model.SeatMap
	Err     error
}

// Retryable 失敗後是否可以讓使用者重試
func (s Snapshot) Retryable() bool {
	return s.State == StateFailed
}

type Loader interface {
	// 抓取座位表；同一時間只允許一個請求
	Fetch(ctx context.Context) (*model.SeatMap, error)
	// 目前狀態
	Snapshot() Snapshot
	// 畫面離開後呼叫，之後回來的結果一律丟棄
	Detach()
}

type LoaderImpl struct {
	gateway gateway.Gateway
	sc      model.ScheduleClassContext

	mu       sync.Mutex
	state    State
	seatMap  *model.SeatMap
	err      error
	inFlight bool
	detached bool
}

func NewLoader(gw gateway.Gateway, sc model.ScheduleClassContext) Loader {
	return &LoaderImpl{
		gateway: gw,
		sc:      sc,
		state:   StateIdle,
	}
}

func (l *LoaderImpl) Fetch(ctx context.Context) (*model.SeatMap, error) {
	log := logger.WithComponent("seatmap").With(
		zap.Int("schedule_id", l.sc.ScheduleID),
		zap.Int("class_offering_id", l.sc.ClassOfferingID),
	)

	l.mu.Lock()
	if l.detached {
		l.mu.Unlock()
		return nil, apperrors.ErrDetached
	}
	if l.inFlight {
		l.mu.Unlock()
		return nil, apperrors.ErrFetchInProgress
	}
	l.inFlight = true
	l.state = StateLoading
	l.err = nil
	l.mu.Unlock()

	seatMap, err := l.gateway.GetSeats(ctx, l.sc.ScheduleID, l.sc.ClassOfferingID)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = false

	// 畫面已離開：結果不得寫回
	if l.detached {
		log.Debug("discard seat map result for detached screen")
		return nil, apperrors.ErrStaleResult
	}

	if err != nil {
		l.state = StateFailed
		l.seatMap = nil
		l.err = fmt.Errorf("load seat map: %w", err)
		log.Warn("failed to load seat map", zap.Error(err))
		return nil, l.err
	}

	if seatMap.ClassOfferingID == 0 {
		seatMap.ClassOfferingID = l.sc.ClassOfferingID
	}
	if seatMap.ScheduleID == 0 {
		seatMap.ScheduleID = l.sc.ScheduleID
	}
	if seatMap.Price == 0 {
		seatMap.Price = l.sc.UnitPrice
	}

	l.state = StateLoaded
	l.seatMap = seatMap
	log.Info("seat map loaded", zap.Int("seats", len(seatMap.Seats)), zap.Int("available", seatMap.AvailableCount()))
	return seatMap, nil
}

func (l *LoaderImpl) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{State: l.state, SeatMap: l.seatMap, Err: l.err}
}

func (l *LoaderImpl) Detach() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.detached = true
}
