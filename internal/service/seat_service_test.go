package service_test

import (
	"context"
	"errors"
	"testing"

	cacheMocks "bus-ticket-booking/internal/cache/mocks"
	"bus-ticket-booking/internal/model"
	repoMocks "bus-ticket-booking/internal/repository/mocks"
	"bus-ticket-booking/internal/service"
	apperrors "bus-ticket-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupSeatMocks() (*repoMocks.SeatRepositoryMock, *repoMocks.TicketRepositoryMock, *cacheMocks.SeatInventoryMock) {
	return repoMocks.NewSeatRepositoryMock(), repoMocks.NewTicketRepositoryMock(), cacheMocks.NewSeatInventoryMock()
}

func testSeats() []model.Seat {
	return []model.Seat{
		{ID: 11, Label: "A1", Position: model.SeatPositionLeft, Index: 0},
		{ID: 12, Label: "A2", Index: 1},
		{ID: 13, Label: "A3", Index: 2},
		{ID: 14, Label: "A4", Position: model.SeatPositionRight, Index: 3},
	}
}

func TestSeatService_GetSeatMap(t *testing.T) {
	ctx := context.Background()
	offering := &model.ClassOffering{ID: 3, ScheduleID: 7, ClassName: "Eksekutif", Price: 50000}

	t.Run("Success", func(t *testing.T) {
		seatRepo, ticketRepo, inventory := setupSeatMocks()
		seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)

		seatRepo.On("FindClassOffering", ctx, 3).Return(offering, nil).Once()
		seatRepo.On("ListByClassOffering", ctx, 3).Return(testSeats(), nil).Once()
		inventory.On("TakenSeats", ctx, 3).Return([]int{12}, nil).Once()

		seatMap, err := seatService.GetSeatMap(ctx, 7, 3)

		require.NoError(t, err)
		assert.Equal(t, 7, seatMap.ScheduleID)
		assert.Equal(t, 3, seatMap.ClassOfferingID)
		assert.Equal(t, 50000.0, seatMap.Price)
		require.Len(t, seatMap.Seats, 4)
		assert.True(t, seatMap.Seats[0].Available)
		assert.False(t, seatMap.Seats[1].Available)
		assert.Equal(t, model.SeatPositionLeft, seatMap.Seats[1].Position, "空白位置依 index 推算")
		assert.Equal(t, model.SeatPositionRight, seatMap.Seats[2].Position)
		assert.Equal(t, 3, seatMap.AvailableCount())

		seatRepo.AssertExpectations(t)
		inventory.AssertExpectations(t)
		ticketRepo.AssertNotCalled(t, "TakenSeats", mock.Anything, mock.Anything)
	})

	t.Run("Success - fallback to database when not warmed", func(t *testing.T) {
		seatRepo, ticketRepo, inventory := setupSeatMocks()
		seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)

		seatRepo.On("FindClassOffering", ctx, 3).Return(offering, nil).Once()
		seatRepo.On("ListByClassOffering", ctx, 3).Return(testSeats(), nil).Once()
		inventory.On("TakenSeats", ctx, 3).Return(nil, apperrors.ErrSeatMapNotWarmed).Once()
		ticketRepo.On("TakenSeats", ctx, 3).Return(map[int]int{14: 2}, nil).Once()

		seatMap, err := seatService.GetSeatMap(ctx, 7, 3)

		require.NoError(t, err)
		assert.False(t, seatMap.Seats[3].Available)
		assert.Equal(t, 3, seatMap.AvailableCount())
		ticketRepo.AssertExpectations(t)
	})

	t.Run("Success - empty seat map", func(t *testing.T) {
		seatRepo, ticketRepo, inventory := setupSeatMocks()
		seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)

		seatRepo.On("FindClassOffering", ctx, 3).Return(offering, nil).Once()
		seatRepo.On("ListByClassOffering", ctx, 3).Return([]model.Seat{}, nil).Once()
		inventory.On("TakenSeats", ctx, 3).Return([]int{}, nil).Once()

		seatMap, err := seatService.GetSeatMap(ctx, 7, 3)

		require.NoError(t, err)
		assert.True(t, seatMap.IsEmpty())
		assert.NotNil(t, seatMap.Seats)
	})

	t.Run("Failed - schedule mismatch", func(t *testing.T) {
		seatRepo, ticketRepo, inventory := setupSeatMocks()
		seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)

		seatRepo.On("FindClassOffering", ctx, 3).Return(offering, nil).Once()

		_, err := seatService.GetSeatMap(ctx, 8, 3)
		assert.ErrorIs(t, err, apperrors.ErrScheduleNotFound)
		seatRepo.AssertNotCalled(t, "ListByClassOffering", mock.Anything, mock.Anything)
	})

	t.Run("Failed - invalid input", func(t *testing.T) {
		seatRepo, ticketRepo, inventory := setupSeatMocks()
		seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)

		_, err := seatService.GetSeatMap(ctx, 0, 3)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Failed - redis error", func(t *testing.T) {
		seatRepo, ticketRepo, inventory := setupSeatMocks()
		seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)

		seatRepo.On("FindClassOffering", ctx, 3).Return(offering, nil).Once()
		seatRepo.On("ListByClassOffering", ctx, 3).Return(testSeats(), nil).Once()
		inventory.On("TakenSeats", ctx, 3).Return(nil, errors.New("redis down")).Once()

		_, err := seatService.GetSeatMap(ctx, 7, 3)
		assert.EqualError(t, err, "redis down")
	})
}

func TestSeatService_WarmUpAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		seatRepo, ticketRepo, inventory := setupSeatMocks()
		seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)

		seatRepo.On("ListClassOfferingIDs", ctx).Return([]int{3}, nil).Once()
		seatRepo.On("FindClassOffering", ctx, 3).Return(&model.ClassOffering{ID: 3, ScheduleID: 7, Price: 50000}, nil).Once()
		seatRepo.On("ListByClassOffering", ctx, 3).Return(testSeats(), nil).Once()
		ticketRepo.On("TakenSeats", ctx, 3).Return(map[int]int{12: 5}, nil).Once()
		inventory.On("WarmUp", ctx, 3, 50000.0, []int{11, 12, 13, 14}, map[int]int{12: 5}).Return(nil).Once()

		require.NoError(t, seatService.WarmUpAll(ctx))
		inventory.AssertExpectations(t)
	})

	t.Run("Failed - warm up error", func(t *testing.T) {
		seatRepo, ticketRepo, inventory := setupSeatMocks()
		seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)

		seatRepo.On("ListClassOfferingIDs", ctx).Return([]int{3}, nil).Once()
		seatRepo.On("FindClassOffering", ctx, 3).Return(&model.ClassOffering{ID: 3, ScheduleID: 7, Price: 50000}, nil).Once()
		seatRepo.On("ListByClassOffering", ctx, 3).Return(testSeats(), nil).Once()
		ticketRepo.On("TakenSeats", ctx, 3).Return(map[int]int{}, nil).Once()
		inventory.On("WarmUp", ctx, 3, 50000.0, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		err := seatService.WarmUpAll(ctx)
		assert.ErrorContains(t, err, "warm up class offering 3")
	})
}
