package worker

import (
	"context"
	"errors"

	"bus-ticket-booking/internal/queue"
	"bus-ticket-booking/internal/service"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

type TicketWorker interface {
	// 訂閱車票隊列
	Start(ctx context.Context) error
}

type TicketWorkerImpl struct {
	service service.TicketService
	queue   queue.TicketQueue
}

func NewTicketWorker(service service.TicketService, queue queue.TicketQueue) TicketWorker {
	return &TicketWorkerImpl{
		service: service,
		queue:   queue,
	}
}

func (w *TicketWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeTickets(ctx)
	if err != nil {
		return err
	}

	go func() {
		log := logger.WithComponent("worker")
		for msg := range msgs {
			err := w.service.PersistTicket(ctx, msg.Data)
			switch {
			case err == nil:
				msg.Ack()
			case errors.Is(err, apperrors.ErrSeatUnavailable):
				// 資料庫已有同座位的有效車票：重試也不會成功
				log.Error("ticket conflicts with persisted seat, discarded",
					zap.Int("ticket_id", msg.Data.ID), zap.Error(err))
				msg.Nack(false)
			default:
				// 資料庫暫時無法寫入，稍後重試
				log.Warn("persist ticket failed, requeue",
					zap.Int("ticket_id", msg.Data.ID), zap.Error(err))
				msg.Nack(true)
			}
		}
	}()
	return nil
}
