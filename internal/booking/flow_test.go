package booking_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"bus-ticket-booking/internal/booking"
	"bus-ticket-booking/internal/gateway"
	"bus-ticket-booking/internal/gateway/mocks"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/passenger"
	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const classOfferingID = 12

var seat1 = model.Seat{ID: 1, Label: "A1", Available: true}

func validPassenger() model.PassengerRecord {
	return model.PassengerRecord{
		FullName:    "Budi",
		NationalID:  "3201",
		Gender:      model.GenderMale,
		PhoneNumber: "0812",
	}
}

func bookingFor(seatID int) interface{} {
	return mock.MatchedBy(func(req model.BookingRequest) bool {
		return req.ClassOfferingID == classOfferingID && req.SeatID == seatID && req.IdempotencyKey != ""
	})
}

func reviewingFlow(t *testing.T, gw *mocks.GatewayMock) booking.Flow {
	t.Helper()
	flow := booking.NewFlow(gw, nil, classOfferingID)
	_, err := flow.Review(seat1, validPassenger(), 50000)
	require.NoError(t, err)
	return flow
}

func TestFlow_Review(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		flow := booking.NewFlow(mocks.NewGatewayMock(), nil, classOfferingID)

		summary, err := flow.Review(seat1, validPassenger(), 50000)
		require.NoError(t, err)
		assert.Equal(t, "A1", summary.Seat.Label)
		assert.Equal(t, 50000.0, summary.Price)
		assert.Equal(t, classOfferingID, summary.ClassOfferingID)
		assert.Equal(t, booking.StateReviewing, flow.Snapshot().State)
	})

	t.Run("Failed - NoSelection", func(t *testing.T) {
		flow := booking.NewFlow(mocks.NewGatewayMock(), nil, classOfferingID)

		_, err := flow.Review(model.Seat{}, validPassenger(), 50000)
		assert.ErrorIs(t, err, apperrors.ErrNoSelection)
		assert.Equal(t, booking.StateEditing, flow.Snapshot().State)
	})

	t.Run("Cancel - NoSideEffects", func(t *testing.T) {
		gw := mocks.NewGatewayMock()
		flow := reviewingFlow(t, gw)

		require.NoError(t, flow.Cancel())
		assert.Equal(t, booking.StateEditing, flow.Snapshot().State)
		gw.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
	})
}

// 任一欄位空白時都無法進入 Submitting
func TestFlow_IncompletePassengerNeverSubmits(t *testing.T) {
	blanks := []func(r *model.PassengerRecord){
		func(r *model.PassengerRecord) { r.FullName = "" },
		func(r *model.PassengerRecord) { r.NationalID = "" },
		func(r *model.PassengerRecord) { r.Gender = "" },
		func(r *model.PassengerRecord) { r.PhoneNumber = " " },
	}

	for i, blank := range blanks {
		record := validPassenger()
		blank(&record)

		gw := mocks.NewGatewayMock()
		flow := booking.NewFlow(gw, nil, classOfferingID)

		_, err := flow.Review(seat1, record, 50000)
		assert.ErrorIs(t, err, apperrors.ErrInvalidPassenger, "case %d", i)

		_, err = flow.Confirm(context.Background())
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "case %d", i)
		assert.NotEqual(t, booking.StateSubmitting, flow.Snapshot().State)
		gw.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
	}
}

// 審查後才切到嚴格格式：送出前重新驗證
func TestFlow_ConfirmRevalidates(t *testing.T) {
	gw := mocks.NewGatewayMock()
	strict := &toggleValidator{}
	flow := booking.NewFlow(gw, strict, classOfferingID)

	_, err := flow.Review(seat1, validPassenger(), 50000)
	require.NoError(t, err)

	strict.reject = true
	_, err = flow.Confirm(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassenger)
	assert.Equal(t, booking.StateReviewing, flow.Snapshot().State)
	gw.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

type toggleValidator struct {
	reject bool
}

func (v *toggleValidator) Validate(record model.PassengerRecord) error {
	if v.reject {
		return &passenger.ValidationError{Invalid: []passenger.Field{passenger.FieldNationalID}}
	}
	return nil
}

func TestFlow_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("Committed", func(t *testing.T) {
		gw := mocks.NewGatewayMock()
		gw.On("CreateTicket", mock.Anything, bookingFor(1)).
			Return(&model.Ticket{ID: 99, Status: model.TicketStatusBooked}, nil).Once()
		flow := reviewingFlow(t, gw)

		outcome, err := flow.Confirm(ctx)
		require.NoError(t, err)
		assert.Equal(t, booking.StateCommitted, outcome.State)
		require.NotNil(t, outcome.Ticket)
		assert.Equal(t, 99, outcome.Ticket.ID)
		assert.True(t, outcome.Ticket.AwaitingPayment())
		assert.NoError(t, outcome.Err)

		snap := flow.Snapshot()
		assert.Equal(t, booking.StateCommitted, snap.State)
		assert.Equal(t, 99, snap.Ticket.ID)
		gw.AssertNumberOfCalls(t, "CreateTicket", 1)

		// 已建立車票後不能再送
		_, err = flow.Confirm(ctx)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		assert.ErrorIs(t, flow.Cancel(), apperrors.ErrInvalidTransition)
		gw.AssertNumberOfCalls(t, "CreateTicket", 1)
	})

	t.Run("Rejected - SeatConflict", func(t *testing.T) {
		conflict := &gateway.APIError{Status: http.StatusConflict, Code: model.CodeSeatUnavailable, Message: "Kursi sudah dipesan"}
		gw := mocks.NewGatewayMock()
		gw.On("CreateTicket", mock.Anything, bookingFor(1)).Return(nil, conflict).Once()
		flow := reviewingFlow(t, gw)

		outcome, err := flow.Confirm(ctx)
		require.NoError(t, err)
		assert.Equal(t, booking.StateRejected, outcome.State)
		assert.True(t, outcome.NeedsSeatRefresh)
		assert.False(t, outcome.Retryable)
		assert.ErrorIs(t, outcome.Err, apperrors.ErrSeatUnavailable)

		// 座位與乘客資料仍保留
		snap := flow.Snapshot()
		require.NotNil(t, snap.Summary)
		assert.Equal(t, seat1, snap.Summary.Seat)
		assert.Equal(t, validPassenger(), snap.Summary.Passenger)

		// 衝突不能直接重送，也不能回到編輯或確認畫面，只能重新抓取座位表
		assert.ErrorIs(t, flow.Retry(), apperrors.ErrInvalidTransition)
		assert.ErrorIs(t, flow.Cancel(), apperrors.ErrSeatRefreshRequired)
		_, err = flow.Review(seat1, validPassenger(), 50000)
		assert.ErrorIs(t, err, apperrors.ErrSeatRefreshRequired)
		assert.Equal(t, booking.StateRejected, flow.Snapshot().State)

		require.NoError(t, flow.Reset())
		assert.Equal(t, booking.StateEditing, flow.Snapshot().State)
		gw.AssertNumberOfCalls(t, "CreateTicket", 1)
	})

	t.Run("Failed - RetryPreservesData", func(t *testing.T) {
		var keys []string
		gw := mocks.NewGatewayMock()
		gw.On("CreateTicket", mock.Anything, bookingFor(1)).Run(func(args mock.Arguments) {
			keys = append(keys, args.Get(1).(model.BookingRequest).IdempotencyKey)
		}).Return(nil, apperrors.ErrTransport).Once()
		gw.On("CreateTicket", mock.Anything, bookingFor(1)).Run(func(args mock.Arguments) {
			keys = append(keys, args.Get(1).(model.BookingRequest).IdempotencyKey)
		}).Return(&model.Ticket{ID: 100, Status: model.TicketStatusBooked}, nil).Once()
		flow := reviewingFlow(t, gw)
		before := flow.Snapshot().Summary

		outcome, err := flow.Confirm(ctx)
		require.NoError(t, err)
		assert.Equal(t, booking.StateFailed, outcome.State)
		assert.True(t, outcome.Retryable)
		assert.False(t, outcome.NeedsSeatRefresh)
		assert.ErrorIs(t, outcome.Err, apperrors.ErrTransport)

		require.NoError(t, flow.Retry())
		snap := flow.Snapshot()
		assert.Equal(t, booking.StateReviewing, snap.State)
		assert.Equal(t, before, snap.Summary)

		outcome, err = flow.Confirm(ctx)
		require.NoError(t, err)
		assert.Equal(t, booking.StateCommitted, outcome.State)

		require.Len(t, keys, 2)
		assert.Equal(t, keys[0], keys[1])
		gw.AssertExpectations(t)
	})

	t.Run("Failed - BackendError", func(t *testing.T) {
		gw := mocks.NewGatewayMock()
		gw.On("CreateTicket", mock.Anything, mock.Anything).
			Return(nil, &gateway.APIError{Status: http.StatusInternalServerError, Message: "boom"}).Once()
		flow := reviewingFlow(t, gw)

		outcome, err := flow.Confirm(ctx)
		require.NoError(t, err)
		assert.Equal(t, booking.StateFailed, outcome.State)
		assert.ErrorIs(t, outcome.Err, apperrors.ErrBackend)
		assert.True(t, outcome.Retryable)
	})

	t.Run("Failed - Unauthorized", func(t *testing.T) {
		gw := mocks.NewGatewayMock()
		gw.On("CreateTicket", mock.Anything, mock.Anything).
			Return(nil, &gateway.APIError{Status: http.StatusUnauthorized}).Once()
		flow := reviewingFlow(t, gw)

		outcome, err := flow.Confirm(ctx)
		require.NoError(t, err)
		assert.Equal(t, booking.StateFailed, outcome.State)
		assert.ErrorIs(t, outcome.Err, apperrors.ErrUnauthorized)
		assert.False(t, outcome.Retryable)

		// 不可重試的失敗：Retry 拒絕，狀態不變，不再送出
		err = flow.Retry()
		assert.ErrorIs(t, err, apperrors.ErrNotRetryable)
		assert.Equal(t, booking.StateFailed, flow.Snapshot().State)
		_, err = flow.Confirm(ctx)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		gw.AssertNumberOfCalls(t, "CreateTicket", 1)
	})

	t.Run("Failed - EmptyTicket", func(t *testing.T) {
		gw := mocks.NewGatewayMock()
		gw.On("CreateTicket", mock.Anything, mock.Anything).Return(nil, nil).Once()
		flow := reviewingFlow(t, gw)

		outcome, err := flow.Confirm(ctx)
		require.NoError(t, err)
		assert.Equal(t, booking.StateFailed, outcome.State)
		assert.ErrorIs(t, outcome.Err, apperrors.ErrMalformedResponse)
	})

	t.Run("Failed - ConfirmWithoutReview", func(t *testing.T) {
		gw := mocks.NewGatewayMock()
		flow := booking.NewFlow(gw, nil, classOfferingID)

		_, err := flow.Confirm(ctx)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		gw.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
	})
}

func TestFlow_DuplicateConfirm(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gw := mocks.NewGatewayMock()
	gw.On("CreateTicket", mock.Anything, bookingFor(1)).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(&model.Ticket{ID: 99, Status: model.TicketStatusBooked}, nil).Once()
	flow := reviewingFlow(t, gw)

	results := make(chan booking.Outcome, 1)
	go func() {
		outcome, _ := flow.Confirm(context.Background())
		results <- outcome
	}()
	<-started

	// 使用者連點確認
	for i := 0; i < 3; i++ {
		_, err := flow.Confirm(context.Background())
		assert.ErrorIs(t, err, apperrors.ErrSubmissionInProgress)
	}
	assert.Equal(t, booking.StateSubmitting, flow.Snapshot().State)
	assert.ErrorIs(t, flow.Cancel(), apperrors.ErrSubmissionInProgress)
	assert.ErrorIs(t, flow.Reset(), apperrors.ErrSubmissionInProgress)
	_, err := flow.Review(seat1, validPassenger(), 50000)
	assert.ErrorIs(t, err, apperrors.ErrSubmissionInProgress)

	close(release)
	outcome := <-results
	assert.Equal(t, booking.StateCommitted, outcome.State)
	gw.AssertNumberOfCalls(t, "CreateTicket", 1)
}

func TestFlow_SubmissionIgnoresCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	var callCtx context.Context

	gw := mocks.NewGatewayMock()
	gw.On("CreateTicket", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		callCtx = args.Get(0).(context.Context)
		close(started)
		<-release
	}).Return(&model.Ticket{ID: 99, Status: model.TicketStatusBooked}, nil).Once()
	flow := reviewingFlow(t, gw)

	results := make(chan booking.Outcome, 1)
	go func() {
		outcome, _ := flow.Confirm(ctx)
		results <- outcome
	}()
	<-started

	// 離開畫面
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer waitCancel()
	assert.ErrorIs(t, flow.Wait(waitCtx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, flow.Wait(context.Background()))
	assert.Equal(t, booking.StateCommitted, (<-results).State)
	assert.NoError(t, callCtx.Err())
}

func TestFlow_Reset(t *testing.T) {
	gw := mocks.NewGatewayMock()
	gw.On("CreateTicket", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrSeatUnavailable).Once()
	flow := reviewingFlow(t, gw)

	outcome, err := flow.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, booking.StateRejected, outcome.State)

	require.NoError(t, flow.Reset())
	snap := flow.Snapshot()
	assert.Equal(t, booking.StateEditing, snap.State)
	assert.Nil(t, snap.Summary)
	assert.Nil(t, snap.Ticket)
	assert.NoError(t, snap.Err)

	// 沒有進行中的送出時 Wait 立即返回
	assert.NoError(t, flow.Wait(context.Background()))
}
