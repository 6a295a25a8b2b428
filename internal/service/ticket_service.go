package service

import (
	"context"
	"errors"
	"time"

	"bus-ticket-booking/internal/cache"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/queue"
	"bus-ticket-booking/internal/repository"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TicketService interface {
	// 建立車票(Redis佔位)，寫入資料庫交給 worker
	CreateTicket(ctx context.Context, userID int, req model.BookingRequest) (*model.Ticket, error)
	// 寫入車票(Queue持久化)
	PersistTicket(ctx context.Context, ticket *model.Ticket) error
	// 只回傳屬於該使用者的車票；尚未寫入資料庫的從 Redis 取
	GetTicket(ctx context.Context, userID int, ticketID int) (*model.Ticket, error)
	// 確保車票已寫入資料庫（付款前使用）
	EnsurePersisted(ctx context.Context, userID int, ticketID int) (*model.Ticket, error)
}

type TicketServiceImpl struct {
	pool             *pgxpool.Pool
	ticketRepository repository.TicketRepository
	seatRepository   repository.SeatRepository
	userRepository   repository.UserRepository
	inventory        cache.SeatInventory
	ticketCache      cache.TicketCache
	ticketQueue      queue.TicketQueue
}

func NewTicketService(
	pool *pgxpool.Pool,
	ticketRepository repository.TicketRepository,
	seatRepository repository.SeatRepository,
	userRepository repository.UserRepository,
	inventory cache.SeatInventory,
	ticketCache cache.TicketCache,
	ticketQueue queue.TicketQueue,
) TicketService {
	return &TicketServiceImpl{
		pool:             pool,
		ticketRepository: ticketRepository,
		seatRepository:   seatRepository,
		userRepository:   userRepository,
		inventory:        inventory,
		ticketCache:      ticketCache,
		ticketQueue:      ticketQueue,
	}
}

func (s *TicketServiceImpl) CreateTicket(ctx context.Context, userID int, req model.BookingRequest) (*model.Ticket, error) {
	if userID <= 0 || req.ClassOfferingID <= 0 || req.SeatID <= 0 {
		return nil, apperrors.ErrInvalidInput
	}

	if req.IdempotencyKey == "" {
		return s.createTicket(ctx, userID, req)
	}

	// 同一個 Idempotency-Key 重送：回傳第一次建立的車票
	existingID, reserved, err := s.ticketCache.ReserveIdempotencyKey(ctx, userID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if !reserved {
		if existingID == 0 {
			return nil, apperrors.ErrRequestInProgress
		}
		logger.WithComponent("ticket").Info("idempotent replay",
			zap.Int("user_id", userID), zap.Int("ticket_id", existingID))
		return s.GetTicket(ctx, userID, existingID)
	}

	ticket, err := s.createTicket(ctx, userID, req)
	if err != nil {
		if releaseErr := s.ticketCache.ReleaseIdempotencyKey(context.Background(), userID, req.IdempotencyKey); releaseErr != nil {
			logger.WithComponent("ticket").Error("failed to release idempotency key", zap.Error(releaseErr))
		}
		return nil, err
	}

	if err := s.ticketCache.CompleteIdempotencyKey(context.Background(), userID, req.IdempotencyKey, ticket.ID); err != nil {
		logger.WithComponent("ticket").Error("failed to complete idempotency key", zap.Int("ticket_id", ticket.ID), zap.Error(err))
	}
	return ticket, nil
}

func (s *TicketServiceImpl) createTicket(ctx context.Context, userID int, req model.BookingRequest) (*model.Ticket, error) {
	log := logger.WithComponent("ticket").With(
		zap.Int("user_id", userID),
		zap.Int("class_offering_id", req.ClassOfferingID),
		zap.Int("seat_id", req.SeatID),
	)

	profile, err := s.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	seat, err := s.seatRepository.FindSeat(ctx, req.ClassOfferingID, req.SeatID)
	if err != nil {
		return nil, err
	}

	// 1. Redis 佔位：同一座位只有一個請求會成功
	price, err := s.inventory.ClaimSeat(ctx, req.ClassOfferingID, req.SeatID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSeatUnavailable) {
			log.Info("seat already taken")
		}
		return nil, err
	}

	// 之後任何失敗都要釋放座位：使用 context.Background() 確保一定執行
	rollback := func(reason string, cause error) {
		log.Error(reason, zap.Error(cause))
		if err := s.inventory.ReleaseSeat(context.Background(), req.ClassOfferingID, req.SeatID); err != nil {
			log.Error("failed to release seat", zap.Error(err))
		}
	}

	ticketID, err := s.inventory.NextTicketID(ctx)
	if err != nil {
		rollback("failed to allocate ticket id", err)
		return nil, apperrors.ErrInternalServerError
	}

	position := seat.Position
	if position == "" {
		position = model.PositionForIndex(seat.Index)
	}

	ticket := &model.Ticket{
		ID:              ticketID,
		Code:            "TKT-" + uuid.New().String(),
		UserID:          userID,
		ClassOfferingID: req.ClassOfferingID,
		SeatID:          req.SeatID,
		PassengerName:   deref(profile.Name),
		NationalID:      deref(profile.NationalID),
		PhoneNumber:     deref(profile.PhoneNumber),
		Seat:            model.TicketSeat{Label: seat.Label, Position: position},
		Price:           price,
		Status:          model.TicketStatusBooked,
		BookedAt:        time.Now().UTC(),
	}

	if err := s.ticketCache.PutPending(ctx, ticket); err != nil {
		log.Warn("failed to cache pending ticket", zap.Int("ticket_id", ticket.ID), zap.Error(err))
	}

	// 2. 發送 MQ：失敗則回滾座位
	if err := s.ticketQueue.PublishTicket(ctx, ticket); err != nil {
		rollback("failed to publish ticket", err)
		if err := s.ticketCache.DeletePending(context.Background(), ticket.ID); err != nil {
			log.Warn("failed to drop pending ticket", zap.Error(err))
		}
		return nil, apperrors.ErrInternalServerError
	}

	log.Info("ticket booked", zap.Int("ticket_id", ticket.ID))
	return ticket, nil
}

func (s *TicketServiceImpl) PersistTicket(ctx context.Context, ticket *model.Ticket) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	created, err := s.ticketRepository.Create(ctx, tx, ticket)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if !created {
		logger.WithComponent("ticket").Debug("ticket already persisted", zap.Int("ticket_id", ticket.ID))
	}
	if err := s.ticketCache.DeletePending(ctx, ticket.ID); err != nil {
		logger.WithComponent("ticket").Warn("failed to drop pending ticket", zap.Int("ticket_id", ticket.ID), zap.Error(err))
	}
	return nil
}

func (s *TicketServiceImpl) GetTicket(ctx context.Context, userID int, ticketID int) (*model.Ticket, error) {
	if ticketID <= 0 {
		return nil, apperrors.ErrInvalidInput
	}

	ticket, err := s.ticketRepository.FindByID(ctx, ticketID)
	if errors.Is(err, apperrors.ErrTicketNotFound) {
		ticket, err = s.ticketCache.GetPending(ctx, ticketID)
	}
	if err != nil {
		return nil, err
	}

	// 不洩漏他人車票是否存在
	if ticket.UserID != userID {
		return nil, apperrors.ErrTicketNotFound
	}
	return ticket, nil
}

func (s *TicketServiceImpl) EnsurePersisted(ctx context.Context, userID int, ticketID int) (*model.Ticket, error) {
	ticket, err := s.ticketRepository.FindByID(ctx, ticketID)
	if err == nil {
		if ticket.UserID != userID {
			return nil, apperrors.ErrTicketNotFound
		}
		return ticket, nil
	}
	if !errors.Is(err, apperrors.ErrTicketNotFound) {
		return nil, err
	}

	// worker 還沒寫入：直接寫入，之後 worker 重複寫入會被忽略
	pending, err := s.ticketCache.GetPending(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if pending.UserID != userID {
		return nil, apperrors.ErrTicketNotFound
	}
	if err := s.PersistTicket(ctx, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
