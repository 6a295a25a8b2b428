package mocks

import (
	"context"
	"time"

	"bus-ticket-booking/internal/model"

	"github.com/stretchr/testify/mock"
)

type SeatInventoryMock struct {
	mock.Mock
}

func NewSeatInventoryMock() *SeatInventoryMock {
	return &SeatInventoryMock{}
}

func (m *SeatInventoryMock) WarmUp(ctx context.Context, classOfferingID int, price float64, seatIDs []int, taken map[int]int) error {
	args := m.Called(ctx, classOfferingID, price, seatIDs, taken)
	return args.Error(0)
}

func (m *SeatInventoryMock) ClaimSeat(ctx context.Context, classOfferingID int, seatID int, userID int) (float64, error) {
	args := m.Called(ctx, classOfferingID, seatID, userID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *SeatInventoryMock) ReleaseSeat(ctx context.Context, classOfferingID int, seatID int) error {
	args := m.Called(ctx, classOfferingID, seatID)
	return args.Error(0)
}

func (m *SeatInventoryMock) TakenSeats(ctx context.Context, classOfferingID int) ([]int, error) {
	args := m.Called(ctx, classOfferingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *SeatInventoryMock) NextTicketID(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *SeatInventoryMock) EnsureTicketSeq(ctx context.Context, floor int) error {
	args := m.Called(ctx, floor)
	return args.Error(0)
}

type TicketCacheMock struct {
	mock.Mock
}

func NewTicketCacheMock() *TicketCacheMock {
	return &TicketCacheMock{}
}

func (m *TicketCacheMock) PutPending(ctx context.Context, ticket *model.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *TicketCacheMock) GetPending(ctx context.Context, ticketID int) (*model.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketCacheMock) DeletePending(ctx context.Context, ticketID int) error {
	args := m.Called(ctx, ticketID)
	return args.Error(0)
}

func (m *TicketCacheMock) ReserveIdempotencyKey(ctx context.Context, userID int, key string) (int, bool, error) {
	args := m.Called(ctx, userID, key)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *TicketCacheMock) CompleteIdempotencyKey(ctx context.Context, userID int, key string, ticketID int) error {
	args := m.Called(ctx, userID, key, ticketID)
	return args.Error(0)
}

func (m *TicketCacheMock) ReleaseIdempotencyKey(ctx context.Context, userID int, key string) error {
	args := m.Called(ctx, userID, key)
	return args.Error(0)
}

type SessionStoreMock struct {
	mock.Mock
}

func NewSessionStoreMock() *SessionStoreMock {
	return &SessionStoreMock{}
}

func (m *SessionStoreMock) Issue(ctx context.Context, token string, userID int, ttl time.Duration) error {
	args := m.Called(ctx, token, userID, ttl)
	return args.Error(0)
}

func (m *SessionStoreMock) UserID(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

func (m *SessionStoreMock) Revoke(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
