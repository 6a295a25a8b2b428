package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bus-ticket-booking/internal/gateway"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/passenger"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State 訂位確認流程狀態
type State string

const (
	StateEditing    State = "editing"    // 選位、填寫乘客資料
	StateReviewing  State = "reviewing"  // 確認畫面，尚未送出
	StateSubmitting State = "submitting" // CreateTicket 進行中
	StateCommitted  State = "committed"  // 車票已建立
	StateRejected   State = "rejected"   // 座位已被別人訂走，需要重新抓取座位表
	StateFailed     State = "failed"     // 其他錯誤，可由確認畫面重試
)

// IsTerminal 該次送出已有結果
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateRejected || s == StateFailed
}

// Summary 確認畫面顯示的內容
type Summary struct {
	ClassOfferingID int
	Seat            model.Seat
	Passenger       model.PassengerRecord
	Price           float64
}

// Outcome 一次送出的結果；失敗不以 error 回傳，而是放在 Err
type Outcome struct {
	State  State
	Ticket *model.Ticket
	Err    error
	// NeedsSeatRefresh 座位衝突，應重新抓取座位表而非重送
	NeedsSeatRefresh bool
	// Retryable 可從確認畫面再送一次
	Retryable bool
}

type Snapshot struct {
	State   State
	Summary *Summary
	Ticket  *model.Ticket
	Err     error
}

type Flow interface {
	// Editing → Reviewing，驗證不通過則停留在原狀態
	Review(seat model.Seat, record model.PassengerRecord, price float64) (Summary, error)
	// 回到 Editing，不產生任何副作用
	Cancel() error
	// Reviewing → Submitting → Committed / Rejected / Failed
	Confirm(ctx context.Context) (Outcome, error)
	// Failed → Reviewing，保留座位與乘客資料；只限可重試的失敗
	Retry() error
	// 座位表重新抓取後回到 Editing
	Reset() error
	// 等待進行中的送出完成
	Wait(ctx context.Context) error
	Snapshot() Snapshot
}

type FlowImpl struct {
	gateway         gateway.Gateway
	validator       passenger.Validator
	classOfferingID int

	mu      sync.Mutex
	state   State
	summary *Summary
	ticket  *model.Ticket
	err     error
	done    chan struct{}
	// 最近一次失敗是否可重送
	retryable bool
	// 同一份確認內容重試時沿用，讓後端可以去重
	idempotencyKey string
}

func NewFlow(gw gateway.Gateway, validator passenger.Validator, classOfferingID int) Flow {
	if validator == nil {
		validator = passenger.NewValidator(nil)
	}
	return &FlowImpl{
		gateway:         gw,
		validator:       validator,
		classOfferingID: classOfferingID,
		state:           StateEditing,
	}
}

func (f *FlowImpl) Review(seat model.Seat, record model.PassengerRecord, price float64) (Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateEditing, StateReviewing, StateFailed:
	case StateSubmitting:
		return Summary{}, apperrors.ErrSubmissionInProgress
	case StateRejected:
		return Summary{}, apperrors.ErrSeatRefreshRequired
	default:
		return Summary{}, fmt.Errorf("%w: review from %s", apperrors.ErrInvalidTransition, f.state)
	}

	if seat.ID <= 0 {
		return Summary{}, apperrors.ErrNoSelection
	}
	if err := f.validator.Validate(record); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		ClassOfferingID: f.classOfferingID,
		Seat:            seat,
		Passenger:       record.Normalized(),
		Price:           price,
	}
	f.summary = &summary
	f.idempotencyKey = uuid.NewString()
	f.err = nil
	f.retryable = false
	f.state = StateReviewing

	logger.WithComponent("booking").Debug("reviewing booking",
		zap.Int("class_offering_id", f.classOfferingID),
		zap.Int("seat_id", seat.ID),
	)
	return summary, nil
}

func (f *FlowImpl) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateSubmitting:
		return apperrors.ErrSubmissionInProgress
	case StateCommitted:
		return fmt.Errorf("%w: ticket already created", apperrors.ErrInvalidTransition)
	case StateRejected:
		// 座位已被訂走，只能由 Reset（重新抓取座位表）離開
		return apperrors.ErrSeatRefreshRequired
	}
	f.state = StateEditing
	f.err = nil
	return nil
}

func (f *FlowImpl) Confirm(ctx context.Context) (Outcome, error) {
	log := logger.WithComponent("booking").With(zap.Int("class_offering_id", f.classOfferingID))

	f.mu.Lock()
	switch f.state {
	case StateReviewing:
	case StateSubmitting:
		f.mu.Unlock()
		log.Debug("ignore duplicate confirm")
		return Outcome{}, apperrors.ErrSubmissionInProgress
	default:
		state := f.state
		f.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: confirm from %s", apperrors.ErrInvalidTransition, state)
	}

	summary := *f.summary
	if err := f.validator.Validate(summary.Passenger); err != nil {
		f.mu.Unlock()
		return Outcome{}, err
	}

	req := model.BookingRequest{
		ClassOfferingID: summary.ClassOfferingID,
		SeatID:          summary.Seat.ID,
		IdempotencyKey:  f.idempotencyKey,
	}
	f.state = StateSubmitting
	f.err = nil
	done := make(chan struct{})
	f.done = done
	f.mu.Unlock()

	log = log.With(zap.Int("seat_id", req.SeatID), zap.String("idempotency_key", req.IdempotencyKey))
	log.Info("submitting booking")

	// 離開畫面不能取消已送出的訂位
	ticket, err := f.gateway.CreateTicket(context.WithoutCancel(ctx), req)

	f.mu.Lock()
	defer f.mu.Unlock()
	defer close(done)

	outcome := classifyResult(ticket, err)
	f.state = outcome.State
	f.ticket = outcome.Ticket
	f.err = outcome.Err
	f.retryable = outcome.Retryable

	switch outcome.State {
	case StateCommitted:
		log.Info("booking committed", zap.Int("ticket_id", ticket.ID), zap.String("status", string(ticket.Status)))
	case StateRejected:
		log.Warn("seat taken by another booking", zap.Error(err))
	default:
		log.Error("booking failed", zap.Error(outcome.Err))
	}
	return outcome, nil
}

func classifyResult(ticket *model.Ticket, err error) Outcome {
	switch {
	case err == nil && ticket != nil:
		return Outcome{State: StateCommitted, Ticket: ticket}
	case err == nil:
		return Outcome{State: StateFailed, Err: fmt.Errorf("%w: empty ticket", apperrors.ErrMalformedResponse), Retryable: true}
	case errors.Is(err, apperrors.ErrSeatUnavailable):
		return Outcome{State: StateRejected, Err: err, NeedsSeatRefresh: true}
	case errors.Is(err, apperrors.ErrUnauthorized):
		return Outcome{State: StateFailed, Err: err}
	default:
		return Outcome{State: StateFailed, Err: err, Retryable: true}
	}
}

func (f *FlowImpl) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateFailed {
		return fmt.Errorf("%w: retry from %s", apperrors.ErrInvalidTransition, f.state)
	}
	if !f.retryable {
		return fmt.Errorf("%w: %v", apperrors.ErrNotRetryable, f.err)
	}
	f.state = StateReviewing
	f.err = nil
	return nil
}

func (f *FlowImpl) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return apperrors.ErrSubmissionInProgress
	}
	f.state = StateEditing
	f.summary = nil
	f.idempotencyKey = ""
	f.ticket = nil
	f.err = nil
	f.retryable = false
	return nil
}

func (f *FlowImpl) Wait(ctx context.Context) error {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FlowImpl) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := Snapshot{State: f.state, Ticket: f.ticket, Err: f.err}
	if f.summary != nil {
		s := *f.summary
		snap.Summary = &s
	}
	return snap
}
