package repository

import (
	"context"
	"errors"
	"fmt"

	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	FindByID(ctx context.Context, id int) (*model.Payment, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Payment, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus) error
}

type PaymentRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &PaymentRepositoryImpl{
		pool: pool,
	}
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		payment model.Payment
		method  string
		status  string
	)
	err := row.Scan(
		&payment.ID,
		&payment.TicketID,
		&method,
		&status,
		&payment.Amount,
		&payment.InvoiceURL,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}
	payment.Method = model.PaymentMethod(method)
	payment.Status = model.PaymentStatus(status)
	return &payment, nil
}

func (r *PaymentRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error) {
	query := `
		INSERT INTO payments (ticket_id, method, status, amount, invoice_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, ticket_id, method, status, amount, invoice_url, created_at
	`

	created, err := scanPayment(tx.QueryRow(ctx, query,
		payment.TicketID, string(payment.Method), string(payment.Status), payment.Amount, payment.InvoiceURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return created, nil
}

func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Payment, error) {
	query := `
		SELECT id, ticket_id, method, status, amount, invoice_url, created_at
		FROM payments
		WHERE id = $1
	`
	return scanPayment(r.pool.QueryRow(ctx, query, id))
}

func (r *PaymentRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Payment, error) {
	query := `
		SELECT id, ticket_id, method, status, amount, invoice_url, created_at
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`
	return scanPayment(tx.QueryRow(ctx, query, id))
}

func (r *PaymentRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus) error {
	result, err := tx.Exec(ctx, `UPDATE payments SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrPaymentNotFound
	}
	return nil
}
