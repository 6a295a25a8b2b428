package mocks

import (
	"context"

	"bus-ticket-booking/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type SeatRepositoryMock struct {
	mock.Mock
}

func NewSeatRepositoryMock() *SeatRepositoryMock {
	return &SeatRepositoryMock{}
}

func (m *SeatRepositoryMock) CreateClassOffering(ctx context.Context, offering *model.ClassOffering, seats []model.Seat) (*model.ClassOffering, error) {
	args := m.Called(ctx, offering, seats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClassOffering), args.Error(1)
}

func (m *SeatRepositoryMock) FindClassOffering(ctx context.Context, id int) (*model.ClassOffering, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClassOffering), args.Error(1)
}

func (m *SeatRepositoryMock) FindSeat(ctx context.Context, classOfferingID int, seatID int) (*model.Seat, error) {
	args := m.Called(ctx, classOfferingID, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Seat), args.Error(1)
}

func (m *SeatRepositoryMock) ListClassOfferingIDs(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *SeatRepositoryMock) ListByClassOffering(ctx context.Context, classOfferingID int) ([]model.Seat, error) {
	args := m.Called(ctx, classOfferingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// 回傳副本，避免呼叫端修改 mock 資料
	return append([]model.Seat(nil), args.Get(0).([]model.Seat)...), args.Error(1)
}

type TicketRepositoryMock struct {
	mock.Mock
}

func NewTicketRepositoryMock() *TicketRepositoryMock {
	return &TicketRepositoryMock{}
}

func (m *TicketRepositoryMock) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) TakenSeats(ctx context.Context, classOfferingID int) (map[int]int, error) {
	args := m.Called(ctx, classOfferingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *TicketRepositoryMock) MaxID(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *TicketRepositoryMock) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (bool, error) {
	args := m.Called(ctx, tx, ticket)
	return args.Bool(0), args.Error(1)
}

func (m *TicketRepositoryMock) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.TicketStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

type PaymentRepositoryMock struct {
	mock.Mock
}

func NewPaymentRepositoryMock() *PaymentRepositoryMock {
	return &PaymentRepositoryMock{}
}

func (m *PaymentRepositoryMock) FindByID(ctx context.Context, id int) (*model.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *PaymentRepositoryMock) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error) {
	args := m.Called(ctx, tx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *PaymentRepositoryMock) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Payment, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *PaymentRepositoryMock) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func NewUserRepositoryMock() *UserRepositoryMock {
	return &UserRepositoryMock{}
}

func (m *UserRepositoryMock) Create(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *UserRepositoryMock) FindByID(ctx context.Context, id int) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}
