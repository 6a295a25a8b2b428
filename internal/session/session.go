package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bus-ticket-booking/config"
	"bus-ticket-booking/internal/booking"
	"bus-ticket-booking/internal/gateway"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/passenger"
	"bus-ticket-booking/internal/payment"
	"bus-ticket-booking/internal/seatmap"
	"bus-ticket-booking/internal/selection"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

// Options nil 時使用預設驗證（只檢查非空）與預設導轉網址
type Options struct {
	Validator passenger.Validator
	Payment   config.PaymentConfig
}

// View 畫面需要的完整狀態
type View struct {
	SeatMap        seatmap.Snapshot
	Selected       *model.Seat
	Booking        booking.Snapshot
	Ticket         *model.Ticket
	ProfileLacking []passenger.Field
}

// BookingSession 一個選位畫面的生命週期：
// 進入時載入座位表與個人資料，離開前必須等待送出中的訂位完成
type BookingSession struct {
	sc        model.ScheduleClassContext
	gateway   gateway.Gateway
	loader    seatmap.Loader
	selection *selection.Machine
	form      *passenger.Form
	flow      booking.Flow
	handoff   payment.Handoff

	mu             sync.Mutex
	ticket         *model.Ticket
	profileLacking []passenger.Field
}

func NewBookingSession(gw gateway.Gateway, sc model.ScheduleClassContext, opts *Options) (*BookingSession, error) {
	if !sc.IsValid() {
		return nil, fmt.Errorf("%w: schedule %d class offering %d", apperrors.ErrInvalidInput, sc.ScheduleID, sc.ClassOfferingID)
	}
	if opts == nil {
		opts = &Options{}
	}

	return &BookingSession{
		sc:        sc,
		gateway:   gw,
		loader:    seatmap.NewLoader(gw, sc),
		selection: selection.NewMachine(),
		form:      passenger.NewForm(),
		flow:      booking.NewFlow(gw, opts.Validator, sc.ClassOfferingID),
		handoff:   payment.NewHandoff(gw, opts.Payment),
	}, nil
}

func (s *BookingSession) log() *zap.Logger {
	return logger.WithComponent("session").With(
		zap.Int("schedule_id", s.sc.ScheduleID),
		zap.Int("class_offering_id", s.sc.ClassOfferingID),
	)
}

// Enter 進入畫面：載入座位表，再用個人資料預填乘客表單。
// 個人資料失敗不影響選位，只記錄 log。
func (s *BookingSession) Enter(ctx context.Context) (*model.SeatMap, error) {
	seatMap, seatErr := s.fetchSeats(ctx)
	if errors.Is(seatErr, apperrors.ErrDetached) || errors.Is(seatErr, apperrors.ErrStaleResult) {
		return nil, seatErr
	}

	profile, err := s.gateway.GetProfile(ctx)
	if err != nil {
		s.log().Warn("profile prefill skipped", zap.Error(err))
	} else {
		lacking := s.form.Prefill(profile)
		s.mu.Lock()
		s.profileLacking = lacking
		s.mu.Unlock()
	}

	return seatMap, seatErr
}

// RefreshSeats 使用者重試或訂位衝突後重新抓取座位表；選取會被清除
func (s *BookingSession) RefreshSeats(ctx context.Context) (*model.SeatMap, error) {
	if s.flow.Snapshot().State == booking.StateSubmitting {
		return nil, apperrors.ErrSubmissionInProgress
	}
	return s.fetchSeats(ctx)
}

func (s *BookingSession) fetchSeats(ctx context.Context) (*model.SeatMap, error) {
	seatMap, err := s.loader.Fetch(ctx)
	if err != nil {
		// 抓取失敗時舊座位表已失效：選取與確認內容不得沿用
		if s.loader.Snapshot().State == seatmap.StateFailed {
			s.selection.Bind(nil)
			if resetErr := s.flow.Reset(); resetErr != nil {
				s.log().Warn("booking flow not reset after failed seat refresh", zap.Error(resetErr))
			}
		}
		return nil, err
	}

	// 新座位表：舊的選取與確認內容都不再有效
	s.selection.Bind(seatMap)
	if err := s.flow.Reset(); err != nil {
		s.log().Warn("booking flow not reset after seat refresh", zap.Error(err))
	}
	return seatMap, nil
}

// SelectSeat 選位會讓確認畫面失效，回到編輯狀態。
// 座位衝突後必須先 RefreshSeats，不能在舊座位表上重選
func (s *BookingSession) SelectSeat(seatID int) (selection.State, error) {
	switch s.flow.Snapshot().State {
	case booking.StateEditing:
	case booking.StateRejected:
		return s.selection.State(), apperrors.ErrSeatRefreshRequired
	default:
		if err := s.flow.Cancel(); err != nil {
			return s.selection.State(), err
		}
	}
	return s.selection.Select(seatID)
}

func (s *BookingSession) Passenger() *passenger.Form {
	return s.form
}

// Review 以目前選取的座位、乘客資料與座位表價格進入確認畫面
func (s *BookingSession) Review() (booking.Summary, error) {
	seat, ok := s.selection.Selected()
	if !ok {
		return booking.Summary{}, apperrors.ErrNoSelection
	}

	snap := s.loader.Snapshot()
	if snap.SeatMap == nil {
		return booking.Summary{}, apperrors.ErrSeatMapNotLoaded
	}

	return s.flow.Review(seat, s.form.Record(), snap.SeatMap.Price)
}

func (s *BookingSession) CancelReview() error {
	return s.flow.Cancel()
}

// Confirm 送出訂位；成功後車票交給付款流程
func (s *BookingSession) Confirm(ctx context.Context) (booking.Outcome, error) {
	outcome, err := s.flow.Confirm(ctx)
	if err != nil {
		return outcome, err
	}

	if outcome.State == booking.StateCommitted {
		s.mu.Lock()
		s.ticket = outcome.Ticket
		s.mu.Unlock()
		s.log().Info("ticket handed off to payment", zap.Int("ticket_id", outcome.Ticket.ID))
	}
	return outcome, nil
}

func (s *BookingSession) Retry() error {
	return s.flow.Retry()
}

func (s *BookingSession) Ticket() *model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket
}

func (s *BookingSession) PaymentMethods() []model.PaymentMethod {
	return s.handoff.Methods()
}

// Pay 為剛建立的車票建立付款
func (s *BookingSession) Pay(ctx context.Context, method model.PaymentMethod) (*payment.Result, error) {
	ticket := s.Ticket()
	if ticket == nil {
		return nil, apperrors.ErrTicketNotAwaitingPay
	}
	return s.handoff.Begin(ctx, ticket, method)
}

// Leave 離開畫面：等待送出中的訂位完成後才解除座位表，
// 之後才回來的座位表結果會被丟棄。ctx 逾時則不離開。
func (s *BookingSession) Leave(ctx context.Context) error {
	if err := s.flow.Wait(ctx); err != nil {
		s.log().Warn("leave blocked by outstanding booking", zap.Error(err))
		return fmt.Errorf("%w: %v", apperrors.ErrSubmissionInProgress, err)
	}
	s.loader.Detach()
	s.log().Debug("session left")
	return nil
}

func (s *BookingSession) View() View {
	view := View{
		SeatMap: s.loader.Snapshot(),
		Booking: s.flow.Snapshot(),
	}
	if seat, ok := s.selection.Selected(); ok {
		view.Selected = &seat
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	view.Ticket = s.ticket
	view.ProfileLacking = append([]passenger.Field(nil), s.profileLacking...)
	return view
}
