package queue

import (
	"context"

	"bus-ticket-booking/internal/model"
)

type Delivery struct {
	Data *model.Ticket
	Ack  func()
	Nack func(requeue bool)
}

type TicketQueue interface {
	// 發送待寫入的車票到隊列
	PublishTicket(ctx context.Context, ticket *model.Ticket) error
	// 訂閱車票隊列
	SubscribeTickets(ctx context.Context) (<-chan Delivery, error)
}

type TicketQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *model.Ticket
}

func NewTicketQueue(bufferSize int) TicketQueue {
	return &TicketQueueImpl{
		ch: make(chan *model.Ticket, bufferSize),
	}
}

func (q *TicketQueueImpl) PublishTicket(ctx context.Context, ticket *model.Ticket) error {
	select {
	case q.ch <- ticket:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *TicketQueueImpl) SubscribeTickets(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ticket, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery{
					Data: ticket,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							// 重回隊列；隊列已滿時放棄，避免卡住 worker
							select {
							case q.ch <- ticket:
							default:
							}
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
