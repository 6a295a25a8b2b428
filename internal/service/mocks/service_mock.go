package mocks

import (
	"context"

	"bus-ticket-booking/internal/model"

	"github.com/stretchr/testify/mock"
)

type SeatServiceMock struct {
	mock.Mock
}

func NewSeatServiceMock() *SeatServiceMock {
	return &SeatServiceMock{}
}

func (m *SeatServiceMock) GetSeatMap(ctx context.Context, scheduleID int, classOfferingID int) (*model.SeatMap, error) {
	args := m.Called(ctx, scheduleID, classOfferingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SeatMap), args.Error(1)
}

func (m *SeatServiceMock) WarmUp(ctx context.Context, classOfferingID int) error {
	args := m.Called(ctx, classOfferingID)
	return args.Error(0)
}

func (m *SeatServiceMock) WarmUpAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type TicketServiceMock struct {
	mock.Mock
}

func NewTicketServiceMock() *TicketServiceMock {
	return &TicketServiceMock{}
}

func (m *TicketServiceMock) CreateTicket(ctx context.Context, userID int, req model.BookingRequest) (*model.Ticket, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) PersistTicket(ctx context.Context, ticket *model.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *TicketServiceMock) GetTicket(ctx context.Context, userID int, ticketID int) (*model.Ticket, error) {
	args := m.Called(ctx, userID, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) EnsurePersisted(ctx context.Context, userID int, ticketID int) (*model.Ticket, error) {
	args := m.Called(ctx, userID, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

type PaymentServiceMock struct {
	mock.Mock
}

func NewPaymentServiceMock() *PaymentServiceMock {
	return &PaymentServiceMock{}
}

func (m *PaymentServiceMock) Create(ctx context.Context, userID int, req model.CreatePaymentRequest) (*model.Payment, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *PaymentServiceMock) CheckStatus(ctx context.Context, userID int, paymentID int) (*model.Payment, error) {
	args := m.Called(ctx, userID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *PaymentServiceMock) Settle(ctx context.Context, userID int, paymentID int, status model.PaymentStatus) (*model.Payment, error) {
	args := m.Called(ctx, userID, paymentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

type ProfileServiceMock struct {
	mock.Mock
}

func NewProfileServiceMock() *ProfileServiceMock {
	return &ProfileServiceMock{}
}

func (m *ProfileServiceMock) Get(ctx context.Context, userID int) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}
