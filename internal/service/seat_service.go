package service

import (
	"context"
	"errors"
	"fmt"

	"bus-ticket-booking/internal/cache"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/repository"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

type SeatService interface {
	// 座位表：座位配置來自資料庫，是否可選以 Redis 佔位為準
	GetSeatMap(ctx context.Context, scheduleID int, classOfferingID int) (*model.SeatMap, error)
	// 將某艙等的座位與已售座位載入 Redis
	WarmUp(ctx context.Context, classOfferingID int) error
	WarmUpAll(ctx context.Context) error
}

type SeatServiceImpl struct {
	seatRepository   repository.SeatRepository
	ticketRepository repository.TicketRepository
	inventory        cache.SeatInventory
}

func NewSeatService(
	seatRepository repository.SeatRepository,
	ticketRepository repository.TicketRepository,
	inventory cache.SeatInventory,
) SeatService {
	return &SeatServiceImpl{
		seatRepository:   seatRepository,
		ticketRepository: ticketRepository,
		inventory:        inventory,
	}
}

func (s *SeatServiceImpl) GetSeatMap(ctx context.Context, scheduleID int, classOfferingID int) (*model.SeatMap, error) {
	if scheduleID <= 0 || classOfferingID <= 0 {
		return nil, apperrors.ErrInvalidInput
	}

	offering, err := s.seatRepository.FindClassOffering(ctx, classOfferingID)
	if err != nil {
		return nil, err
	}
	if offering.ScheduleID != scheduleID {
		return nil, apperrors.ErrScheduleNotFound
	}

	seats, err := s.seatRepository.ListByClassOffering(ctx, classOfferingID)
	if err != nil {
		return nil, err
	}

	taken, err := s.takenSeats(ctx, classOfferingID)
	if err != nil {
		return nil, err
	}

	for i := range seats {
		_, isTaken := taken[seats[i].ID]
		seats[i].Available = !isTaken
		if seats[i].Position == "" {
			seats[i].Position = model.PositionForIndex(seats[i].Index)
		}
	}

	return &model.SeatMap{
		ScheduleID:      offering.ScheduleID,
		ClassOfferingID: offering.ID,
		Price:           offering.Price,
		Seats:           seats,
	}, nil
}

// takenSeats Redis 尚未預熱時改查資料庫
func (s *SeatServiceImpl) takenSeats(ctx context.Context, classOfferingID int) (map[int]struct{}, error) {
	ids, err := s.inventory.TakenSeats(ctx, classOfferingID)
	if err == nil {
		taken := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			taken[id] = struct{}{}
		}
		return taken, nil
	}
	if !errors.Is(err, apperrors.ErrSeatMapNotWarmed) {
		return nil, err
	}

	logger.WithComponent("seat").Warn("inventory not warmed, reading taken seats from database",
		zap.Int("class_offering_id", classOfferingID))

	owners, err := s.ticketRepository.TakenSeats(ctx, classOfferingID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]struct{}, len(owners))
	for id := range owners {
		taken[id] = struct{}{}
	}
	return taken, nil
}

func (s *SeatServiceImpl) WarmUp(ctx context.Context, classOfferingID int) error {
	offering, err := s.seatRepository.FindClassOffering(ctx, classOfferingID)
	if err != nil {
		return err
	}
	seats, err := s.seatRepository.ListByClassOffering(ctx, classOfferingID)
	if err != nil {
		return err
	}
	taken, err := s.ticketRepository.TakenSeats(ctx, classOfferingID)
	if err != nil {
		return err
	}

	seatIDs := make([]int, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.ID
	}

	if err := s.inventory.WarmUp(ctx, offering.ID, offering.Price, seatIDs, taken); err != nil {
		return fmt.Errorf("warm up class offering %d: %w", classOfferingID, err)
	}

	logger.WithComponent("seat").Info("seat inventory warmed up",
		zap.Int("class_offering_id", classOfferingID),
		zap.Int("seats", len(seatIDs)),
		zap.Int("taken", len(taken)),
	)
	return nil
}

func (s *SeatServiceImpl) WarmUpAll(ctx context.Context) error {
	ids, err := s.seatRepository.ListClassOfferingIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.WarmUp(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
