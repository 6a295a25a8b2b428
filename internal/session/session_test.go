package session_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"bus-ticket-booking/internal/booking"
	"bus-ticket-booking/internal/gateway"
	"bus-ticket-booking/internal/gateway/mocks"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/passenger"
	"bus-ticket-booking/internal/seatmap"
	"bus-ticket-booking/internal/selection"
	"bus-ticket-booking/internal/session"
	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var sc = model.ScheduleClassContext{ScheduleID: 7, ClassOfferingID: 12, UnitPrice: 50000}

func seatMap() *model.SeatMap {
	return &model.SeatMap{
		ScheduleID:      7,
		ClassOfferingID: 12,
		Price:           50000,
		Seats: []model.Seat{
			{ID: 1, Label: "A1", Position: model.SeatPositionLeft, Available: true},
			{ID: 2, Label: "A2", Position: model.SeatPositionLeft, Available: false},
		},
	}
}

func strPtr(s string) *string { return &s }

func fillPassenger(s *session.BookingSession) {
	form := s.Passenger()
	form.SetFullName("Budi")
	form.SetNationalID("3201")
	form.SetGender(model.GenderMale)
	form.SetPhoneNumber("0812")
}

func enteredSession(t *testing.T, gw *mocks.GatewayMock) *session.BookingSession {
	t.Helper()
	gw.On("GetSeats", mock.Anything, 7, 12).Return(seatMap(), nil).Once()
	gw.On("GetProfile", mock.Anything).Return(nil, apperrors.ErrTransport).Once()

	s, err := session.NewBookingSession(gw, sc, nil)
	require.NoError(t, err)
	_, err = s.Enter(context.Background())
	require.NoError(t, err)
	return s
}

func TestNewBookingSession_InvalidContext(t *testing.T) {
	_, err := session.NewBookingSession(mocks.NewGatewayMock(), model.ScheduleClassContext{ScheduleID: 7}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBookingSession_HappyPath(t *testing.T) {
	ctx := context.Background()
	gw := mocks.NewGatewayMock()
	s := enteredSession(t, gw)

	state, err := s.SelectSeat(1)
	require.NoError(t, err)
	assert.Equal(t, selection.StateSelected, state)

	fillPassenger(s)
	summary, err := s.Review()
	require.NoError(t, err)
	assert.Equal(t, "A1", summary.Seat.Label)
	assert.Equal(t, 50000.0, summary.Price)

	gw.On("CreateTicket", mock.Anything, mock.MatchedBy(func(req model.BookingRequest) bool {
		return req.ClassOfferingID == 12 && req.SeatID == 1
	})).Return(&model.Ticket{ID: 99, Status: model.TicketStatusBooked}, nil).Once()

	outcome, err := s.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, booking.StateCommitted, outcome.State)
	gw.AssertNumberOfCalls(t, "CreateTicket", 1)

	// 付款流程收到車票 99
	require.NotNil(t, s.Ticket())
	assert.Equal(t, 99, s.Ticket().ID)
	assert.Len(t, s.PaymentMethods(), 3)

	gw.On("CreatePayment", mock.Anything, model.CreatePaymentRequest{TicketID: 99, Method: model.PaymentMethodCash}).
		Return(&model.Payment{ID: 1, TicketID: 99, Method: model.PaymentMethodCash, Status: model.PaymentStatusPending}, nil).Once()
	result, err := s.Pay(ctx, model.PaymentMethodCash)
	require.NoError(t, err)
	assert.Equal(t, 99, result.Payment.TicketID)
	assert.False(t, result.RequiresRedirect)

	require.NoError(t, s.Leave(ctx))
	gw.AssertExpectations(t)
}

func TestBookingSession_Conflict(t *testing.T) {
	ctx := context.Background()
	gw := mocks.NewGatewayMock()
	s := enteredSession(t, gw)

	_, err := s.SelectSeat(1)
	require.NoError(t, err)
	fillPassenger(s)
	_, err = s.Review()
	require.NoError(t, err)

	gw.On("CreateTicket", mock.Anything, mock.Anything).
		Return(nil, &gateway.APIError{Status: http.StatusConflict, Code: model.CodeSeatUnavailable}).Once()

	outcome, err := s.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, booking.StateRejected, outcome.State)
	assert.True(t, outcome.NeedsSeatRefresh)

	// 選取與乘客資料都還在
	view := s.View()
	require.NotNil(t, view.Selected)
	assert.Equal(t, 1, view.Selected.ID)
	assert.Equal(t, "Budi", s.Passenger().Record().FullName)
	assert.Nil(t, s.Ticket())

	_, err = s.Pay(ctx, model.PaymentMethodCash)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotAwaitingPay)

	// 重新抓取座位表前不能在舊座位表上改選或再次確認
	_, err = s.SelectSeat(1)
	assert.ErrorIs(t, err, apperrors.ErrSeatRefreshRequired)
	_, err = s.Review()
	assert.ErrorIs(t, err, apperrors.ErrSeatRefreshRequired)
	assert.Equal(t, booking.StateRejected, s.View().Booking.State)
	gw.AssertNumberOfCalls(t, "CreateTicket", 1)

	// 重新抓取：座位 1 已被訂走，選取清除，乘客資料保留
	taken := seatMap()
	taken.Seats[0].Available = false
	gw.On("GetSeats", mock.Anything, 7, 12).Return(taken, nil).Once()

	_, err = s.RefreshSeats(ctx)
	require.NoError(t, err)
	view = s.View()
	assert.Nil(t, view.Selected)
	assert.Equal(t, booking.StateEditing, view.Booking.State)
	assert.Equal(t, "Budi", s.Passenger().Record().FullName)

	_, err = s.SelectSeat(1)
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)
}

func TestBookingSession_FailedRefreshClearsSelection(t *testing.T) {
	ctx := context.Background()
	gw := mocks.NewGatewayMock()
	s := enteredSession(t, gw)

	_, err := s.SelectSeat(1)
	require.NoError(t, err)
	fillPassenger(s)
	_, err = s.Review()
	require.NoError(t, err)

	gw.On("GetSeats", mock.Anything, 7, 12).Return(nil, apperrors.ErrTransport).Once()
	_, err = s.RefreshSeats(ctx)
	assert.ErrorIs(t, err, apperrors.ErrTransport)

	// 座位表失效後選取與確認內容都清除，乘客資料保留
	view := s.View()
	assert.Equal(t, seatmap.StateFailed, view.SeatMap.State)
	assert.Nil(t, view.SeatMap.SeatMap)
	assert.Nil(t, view.Selected)
	assert.Equal(t, booking.StateEditing, view.Booking.State)
	assert.Nil(t, view.Booking.Summary)
	assert.Equal(t, "Budi", s.Passenger().Record().FullName)

	_, err = s.Confirm(ctx)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = s.SelectSeat(1)
	assert.ErrorIs(t, err, apperrors.ErrSeatNotInMap)
	_, err = s.Review()
	assert.ErrorIs(t, err, apperrors.ErrNoSelection)
	gw.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

func TestBookingSession_RetryPreservesData(t *testing.T) {
	ctx := context.Background()
	gw := mocks.NewGatewayMock()
	s := enteredSession(t, gw)

	_, err := s.SelectSeat(1)
	require.NoError(t, err)
	fillPassenger(s)
	_, err = s.Review()
	require.NoError(t, err)

	before := s.View()
	recordBefore := s.Passenger().Record()

	gw.On("CreateTicket", mock.Anything, mock.Anything).Return(nil, apperrors.ErrTransport).Once()
	outcome, err := s.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, booking.StateFailed, outcome.State)
	assert.True(t, outcome.Retryable)

	require.NoError(t, s.Retry())
	after := s.View()
	assert.Equal(t, before.Selected, after.Selected)
	assert.Equal(t, before.Booking.Summary, after.Booking.Summary)
	assert.Equal(t, recordBefore, s.Passenger().Record())
	assert.Equal(t, booking.StateReviewing, after.Booking.State)
}

func TestBookingSession_ReviewGuards(t *testing.T) {
	gw := mocks.NewGatewayMock()
	s := enteredSession(t, gw)

	_, err := s.Review()
	assert.ErrorIs(t, err, apperrors.ErrNoSelection)

	_, err = s.SelectSeat(1)
	require.NoError(t, err)
	s.Passenger().SetFullName("Budi")

	_, err = s.Review()
	var verr *passenger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []passenger.Field{passenger.FieldNationalID, passenger.FieldGender, passenger.FieldPhoneNumber}, verr.Missing)

	_, err = s.Confirm(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	gw.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)

	// 在確認畫面改選座位會回到編輯狀態
	fillPassenger(s)
	_, err = s.Review()
	require.NoError(t, err)
	_, err = s.SelectSeat(1)
	require.NoError(t, err)
	assert.Equal(t, booking.StateEditing, s.View().Booking.State)
}

func TestBookingSession_ProfilePrefill(t *testing.T) {
	gw := mocks.NewGatewayMock()
	gw.On("GetSeats", mock.Anything, 7, 12).Return(seatMap(), nil).Once()
	gw.On("GetProfile", mock.Anything).Return(&model.Profile{
		ID:          3,
		Name:        strPtr("Budi"),
		Gender:      strPtr("L"),
		PhoneNumber: strPtr("081234567890"),
	}, nil).Once()

	s, err := session.NewBookingSession(gw, sc, nil)
	require.NoError(t, err)
	_, err = s.Enter(context.Background())
	require.NoError(t, err)

	record := s.Passenger().Record()
	assert.Equal(t, "Budi", record.FullName)
	assert.Empty(t, record.NationalID)
	assert.Equal(t, model.GenderMale, record.Gender)
	assert.Equal(t, []passenger.Field{passenger.FieldNationalID}, s.View().ProfileLacking)
}

func TestBookingSession_EnterSeatFailure(t *testing.T) {
	gw := mocks.NewGatewayMock()
	gw.On("GetSeats", mock.Anything, 7, 12).Return(nil, apperrors.ErrTransport).Once()
	gw.On("GetProfile", mock.Anything).Return(&model.Profile{Name: strPtr("Budi")}, nil).Once()

	s, err := session.NewBookingSession(gw, sc, nil)
	require.NoError(t, err)

	_, err = s.Enter(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTransport)

	view := s.View()
	assert.Equal(t, seatmap.StateFailed, view.SeatMap.State)
	assert.True(t, view.SeatMap.Retryable())
	// 個人資料仍然預填
	assert.Equal(t, "Budi", s.Passenger().Record().FullName)

	_, err = s.Review()
	assert.ErrorIs(t, err, apperrors.ErrNoSelection)
}

func TestBookingSession_LeaveDiscardsLateSeatMap(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gw := mocks.NewGatewayMock()
	gw.On("GetSeats", mock.Anything, 7, 12).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(seatMap(), nil).Once()

	s, err := session.NewBookingSession(gw, sc, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Enter(context.Background())
		done <- err
	}()
	<-started

	require.NoError(t, s.Leave(context.Background()))
	close(release)

	assert.ErrorIs(t, <-done, apperrors.ErrStaleResult)
	view := s.View()
	assert.Nil(t, view.SeatMap.SeatMap)
	assert.Nil(t, view.Selected)
	gw.AssertNotCalled(t, "GetProfile", mock.Anything)

	_, err = s.RefreshSeats(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrDetached)
}

func TestBookingSession_LeaveWaitsForSubmission(t *testing.T) {
	gw := mocks.NewGatewayMock()
	s := enteredSession(t, gw)

	_, err := s.SelectSeat(1)
	require.NoError(t, err)
	fillPassenger(s)
	_, err = s.Review()
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	gw.On("CreateTicket", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(&model.Ticket{ID: 99, Status: model.TicketStatusBooked}, nil).Once()

	go func() {
		_, _ = s.Confirm(context.Background())
	}()
	<-started

	// 送出中：不能重新抓取也不能離開
	_, err = s.RefreshSeats(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSubmissionInProgress)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = s.Leave(ctx)
	assert.ErrorIs(t, err, apperrors.ErrSubmissionInProgress)
	assert.True(t, errors.Is(ctx.Err(), context.DeadlineExceeded))

	left := make(chan error, 1)
	go func() {
		left <- s.Leave(context.Background())
	}()
	close(release)

	require.NoError(t, <-left)
	snap := s.View().Booking
	assert.Equal(t, booking.StateCommitted, snap.State)
	assert.Equal(t, 99, snap.Ticket.ID)
}
