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

type SeatRepository interface {
	// 建立艙等與座位配置（sandbox seed 使用）
	CreateClassOffering(ctx context.Context, offering *model.ClassOffering, seats []model.Seat) (*model.ClassOffering, error)
	FindClassOffering(ctx context.Context, id int) (*model.ClassOffering, error)
	FindSeat(ctx context.Context, classOfferingID int, seatID int) (*model.Seat, error)
	ListClassOfferingIDs(ctx context.Context) ([]int, error)
	// 依 index 排序；Available 由呼叫端依已售座位決定
	ListByClassOffering(ctx context.Context, classOfferingID int) ([]model.Seat, error)
}

type SeatRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSeatRepository(pool *pgxpool.Pool) SeatRepository {
	return &SeatRepositoryImpl{
		pool: pool,
	}
}

func (r *SeatRepositoryImpl) CreateClassOffering(ctx context.Context, offering *model.ClassOffering, seats []model.Seat) (*model.ClassOffering, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO class_offerings (schedule_id, class_name, price)
		VALUES ($1, $2, $3)
		RETURNING id, schedule_id, class_name, price
	`
	err = tx.QueryRow(ctx, query,
		offering.ScheduleID, offering.ClassName, offering.Price,
	).Scan(
		&offering.ID,
		&offering.ScheduleID,
		&offering.ClassName,
		&offering.Price,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create class offering: %w", err)
	}

	batch := &pgx.Batch{}
	for _, seat := range seats {
		batch.Queue(`
			INSERT INTO seats (class_offering_id, label, position, seat_index)
			VALUES ($1, $2, $3, $4)
		`, offering.ID, seat.Label, string(seat.Position), seat.Index)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to create seats: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return offering, nil
}

func (r *SeatRepositoryImpl) FindClassOffering(ctx context.Context, id int) (*model.ClassOffering, error) {
	query := `
		SELECT id, schedule_id, class_name, price
		FROM class_offerings
		WHERE id = $1
	`

	var offering model.ClassOffering
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&offering.ID,
		&offering.ScheduleID,
		&offering.ClassName,
		&offering.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrScheduleNotFound
		}
		return nil, err
	}
	return &offering, nil
}

func (r *SeatRepositoryImpl) FindSeat(ctx context.Context, classOfferingID int, seatID int) (*model.Seat, error) {
	query := `
		SELECT id, label, position, seat_index
		FROM seats
		WHERE id = $1 AND class_offering_id = $2
	`

	var (
		seat     model.Seat
		position string
	)
	err := r.pool.QueryRow(ctx, query, seatID, classOfferingID).Scan(&seat.ID, &seat.Label, &position, &seat.Index)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSeatNotFound
		}
		return nil, err
	}
	seat.Position = model.SeatPosition(position)
	return &seat, nil
}

func (r *SeatRepositoryImpl) ListClassOfferingIDs(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM class_offerings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SeatRepositoryImpl) ListByClassOffering(ctx context.Context, classOfferingID int) ([]model.Seat, error) {
	query := `
		SELECT id, label, position, seat_index
		FROM seats
		WHERE class_offering_id = $1
		ORDER BY seat_index, id
	`

	rows, err := r.pool.Query(ctx, query, classOfferingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]model.Seat, 0)
	for rows.Next() {
		var (
			seat     model.Seat
			position string
		)
		if err := rows.Scan(&seat.ID, &seat.Label, &position, &seat.Index); err != nil {
			return nil, err
		}
		seat.Position = model.SeatPosition(position)
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
