package repository

import (
	"context"
	"errors"

	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	// 建立使用者（sandbox seed 使用）；nil 欄位存成 NULL
	Create(ctx context.Context, profile *model.Profile) (*model.Profile, error)
	FindByID(ctx context.Context, id int) (*model.Profile, error)
}

type UserRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &UserRepositoryImpl{
		pool: pool,
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	query := `
		INSERT INTO users (name, email, national_id, gender, phone_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		profile.Name, profile.Email, profile.NationalID, profile.Gender, profile.PhoneNumber,
	).Scan(&profile.ID)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Profile, error) {
	query := `
		SELECT id, name, email, national_id, gender, phone_number
		FROM users
		WHERE id = $1
	`

	var profile model.Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Email,
		&profile.NationalID,
		&profile.Gender,
		&profile.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &profile, nil
}
