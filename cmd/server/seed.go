package main

import (
	"context"
	"fmt"
	"time"

	"bus-ticket-booking/internal/cache"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/repository"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

const demoSessionTTL = 24 * time.Hour

type demoClass struct {
	name  string
	price float64
	rows  int
}

var demoClasses = []demoClass{
	{name: "Eksekutif", price: 150000, rows: 5},
	{name: "Ekonomi", price: 90000, rows: 10},
}

// seedDemo 資料庫沒有任何艙等時建立一個班次的示範座位與使用者，並以 token 登入
func seedDemo(ctx context.Context, seats repository.SeatRepository, users repository.UserRepository, sessions cache.SessionStore, token string) error {
	log := logger.WithComponent("seed")

	ids, err := seats.ListClassOfferingIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		log.Info("Demo seed skipped, class offerings exist", zap.Int("count", len(ids)))
		return nil
	}

	const scheduleID = 1
	for _, c := range demoClasses {
		offering, err := seats.CreateClassOffering(ctx, &model.ClassOffering{
			ScheduleID: scheduleID,
			ClassName:  c.name,
			Price:      c.price,
		}, demoSeats(c.rows))
		if err != nil {
			return fmt.Errorf("seed class %s: %w", c.name, err)
		}
		log.Info("Demo class offering created",
			zap.Int("schedule_id", scheduleID),
			zap.Int("class_offering_id", offering.ID),
			zap.String("class", offering.ClassName),
		)
	}

	name := "Budi Santoso"
	email := "budi@example.com"
	profile, err := users.Create(ctx, &model.Profile{Name: &name, Email: &email})
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if err := sessions.Issue(ctx, token, profile.ID, demoSessionTTL); err != nil {
		return fmt.Errorf("seed session: %w", err)
	}

	log.Info("Demo user signed in", zap.Int("user_id", profile.ID), zap.Duration("ttl", demoSessionTTL))
	return nil
}

// demoSeats 每排 SeatsPerRow 個座位，標籤為排字母加號碼，例如 A1、A2
func demoSeats(rows int) []model.Seat {
	seats := make([]model.Seat, 0, rows*model.SeatsPerRow)
	for row := 0; row < rows; row++ {
		for col := 0; col < model.SeatsPerRow; col++ {
			index := row*model.SeatsPerRow + col
			seats = append(seats, model.Seat{
				Label:    fmt.Sprintf("%c%d", 'A'+row, col+1),
				Position: model.PositionForIndex(index),
				Index:    index,
			})
		}
	}
	return seats
}
