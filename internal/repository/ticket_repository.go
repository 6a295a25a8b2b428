package repository

import (
	"context"
	"errors"
	"fmt"

	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL unique violation
const pgUniqueViolationCode = "23505"

type TicketRepository interface {
	FindByID(ctx context.Context, id int) (*model.Ticket, error)
	// 某艙等未取消車票佔用的座位：seat_id -> user_id
	TakenSeats(ctx context.Context, classOfferingID int) (map[int]int, error)
	// 目前最大的車票 id，用來補回 Redis 流水號
	MaxID(ctx context.Context) (int, error)

	// Transaction methods
	// Create 以 id 冪等寫入；同一 id 重送回傳 created=false
	Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (created bool, err error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.TicketStatus) error
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `
	t.id, t.code, t.user_id, t.class_offering_id, t.seat_id,
	t.passenger_name, t.national_id, t.phone_number,
	t.price, t.status, t.booked_at, s.label, s.position, s.seat_index
`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var (
		ticket   model.Ticket
		status   string
		position string
		index    int
	)
	err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.UserID,
		&ticket.ClassOfferingID,
		&ticket.SeatID,
		&ticket.PassengerName,
		&ticket.NationalID,
		&ticket.PhoneNumber,
		&ticket.Price,
		&status,
		&ticket.BookedAt,
		&ticket.Seat.Label,
		&position,
		&index,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	ticket.Status = model.TicketStatus(status)
	ticket.Seat.Position = model.SeatPosition(position)
	if ticket.Seat.Position == "" {
		ticket.Seat.Position = model.PositionForIndex(index)
	}
	return &ticket, nil
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (bool, error) {
	query := `
		INSERT INTO tickets (
			id, code, user_id, class_offering_id, seat_id,
			passenger_name, national_id, phone_number, price, status, booked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := tx.Exec(ctx, query,
		ticket.ID, ticket.Code, ticket.UserID, ticket.ClassOfferingID, ticket.SeatID,
		ticket.PassengerName, ticket.NationalID, ticket.PhoneNumber,
		ticket.Price, string(ticket.Status), ticket.BookedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return false, apperrors.ErrSeatUnavailable
		}
		return false, fmt.Errorf("failed to create ticket: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *TicketRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN seats s ON s.id = t.seat_id
		WHERE t.id = $1
	`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *TicketRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN seats s ON s.id = t.seat_id
		WHERE t.id = $1
		FOR UPDATE OF t
	`
	return scanTicket(tx.QueryRow(ctx, query, id))
}

func (r *TicketRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.TicketStatus) error {
	if !status.IsValid() {
		return apperrors.ErrInvalidTicketStatus
	}

	result, err := tx.Exec(ctx, `UPDATE tickets SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepositoryImpl) TakenSeats(ctx context.Context, classOfferingID int) (map[int]int, error) {
	query := `
		SELECT seat_id, user_id
		FROM tickets
		WHERE class_offering_id = $1 AND status <> $2
	`

	rows, err := r.pool.Query(ctx, query, classOfferingID, string(model.TicketStatusCancelled))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := make(map[int]int)
	for rows.Next() {
		var seatID, userID int
		if err := rows.Scan(&seatID, &userID); err != nil {
			return nil, err
		}
		taken[seatID] = userID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return taken, nil
}

func (r *TicketRepositoryImpl) MaxID(ctx context.Context) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM tickets`).Scan(&id)
	return id, err
}
