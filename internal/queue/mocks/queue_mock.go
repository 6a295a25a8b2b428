package mocks

import (
	"context"

	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/queue"

	"github.com/stretchr/testify/mock"
)

type TicketQueueMock struct {
	mock.Mock
}

func NewTicketQueueMock() *TicketQueueMock {
	return &TicketQueueMock{}
}

func (m *TicketQueueMock) PublishTicket(ctx context.Context, ticket *model.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *TicketQueueMock) SubscribeTickets(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}
