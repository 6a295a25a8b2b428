package service

import (
	"context"

	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/repository"
)

type ProfileService interface {
	Get(ctx context.Context, userID int) (*model.Profile, error)
}

type ProfileServiceImpl struct {
	repo repository.UserRepository
}

func NewProfileService(repo repository.UserRepository) ProfileService {
	return &ProfileServiceImpl{repo: repo}
}

func (s *ProfileServiceImpl) Get(ctx context.Context, userID int) (*model.Profile, error) {
	return s.repo.FindByID(ctx, userID)
}
