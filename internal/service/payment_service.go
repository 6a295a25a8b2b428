package service

import (
	"context"
	"strings"

	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/repository"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PaymentService interface {
	Create(ctx context.Context, userID int, req model.CreatePaymentRequest) (*model.Payment, error)
	CheckStatus(ctx context.Context, userID int, paymentID int) (*model.Payment, error)
	// 模擬付款閘道回報結果；paid 時車票改為 dibayar
	Settle(ctx context.Context, userID int, paymentID int, status model.PaymentStatus) (*model.Payment, error)
}

type PaymentServiceImpl struct {
	pool              *pgxpool.Pool
	paymentRepository repository.PaymentRepository
	ticketRepository  repository.TicketRepository
	tickets           TicketService
	invoiceBaseURL    string
}

func NewPaymentService(
	pool *pgxpool.Pool,
	paymentRepository repository.PaymentRepository,
	ticketRepository repository.TicketRepository,
	tickets TicketService,
	invoiceBaseURL string,
) PaymentService {
	return &PaymentServiceImpl{
		pool:              pool,
		paymentRepository: paymentRepository,
		ticketRepository:  ticketRepository,
		tickets:           tickets,
		invoiceBaseURL:    strings.TrimRight(invoiceBaseURL, "/"),
	}
}

func (s *PaymentServiceImpl) Create(ctx context.Context, userID int, req model.CreatePaymentRequest) (*model.Payment, error) {
	if req.TicketID <= 0 {
		return nil, apperrors.ErrInvalidInput
	}
	if !req.Method.IsValid() {
		return nil, apperrors.ErrUnsupportedPayment
	}

	if _, err := s.tickets.EnsurePersisted(ctx, userID, req.TicketID); err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ticket, err := s.ticketRepository.FindByIDWithLock(ctx, tx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if !ticket.AwaitingPayment() {
		return nil, apperrors.ErrTicketNotAwaitingPay
	}

	payment := &model.Payment{
		TicketID: ticket.ID,
		Method:   req.Method,
		Status:   model.PaymentStatusPending,
		Amount:   ticket.Price,
	}
	if req.Method.RequiresRedirect() {
		payment.InvoiceURL = s.invoiceBaseURL + "/" + uuid.New().String()
	}

	created, err := s.paymentRepository.Create(ctx, tx, payment)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("payment").Info("payment created",
		zap.Int("payment_id", created.ID),
		zap.Int("ticket_id", ticket.ID),
		zap.String("method", string(created.Method)),
	)
	return created, nil
}

func (s *PaymentServiceImpl) CheckStatus(ctx context.Context, userID int, paymentID int) (*model.Payment, error) {
	if paymentID <= 0 {
		return nil, apperrors.ErrInvalidInput
	}

	payment, err := s.paymentRepository.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepository.FindByID(ctx, payment.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, apperrors.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentServiceImpl) Settle(ctx context.Context, userID int, paymentID int, status model.PaymentStatus) (*model.Payment, error) {
	if paymentID <= 0 {
		return nil, apperrors.ErrInvalidInput
	}
	if !status.IsFinal() {
		return nil, apperrors.ErrInvalidPaymentState
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	payment, err := s.paymentRepository.FindByIDWithLock(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepository.FindByIDWithLock(ctx, tx, payment.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, apperrors.ErrPaymentNotFound
	}
	if payment.Status.IsFinal() {
		return nil, apperrors.ErrInvalidPaymentState
	}

	if err := s.paymentRepository.UpdateStatus(ctx, tx, payment.ID, status); err != nil {
		return nil, err
	}
	if status == model.PaymentStatusPaid {
		if !ticket.Status.CanTransitionTo(model.TicketStatusPaid) {
			return nil, apperrors.ErrInvalidTicketStatus
		}
		if err := s.ticketRepository.UpdateStatus(ctx, tx, ticket.ID, model.TicketStatusPaid); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	payment.Status = status
	logger.WithComponent("payment").Info("payment settled",
		zap.Int("payment_id", payment.ID),
		zap.String("status", string(status)),
	)
	return payment, nil
}
