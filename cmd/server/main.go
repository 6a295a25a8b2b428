package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bus-ticket-booking/config"
	"bus-ticket-booking/internal/cache"
	"bus-ticket-booking/internal/database"
	"bus-ticket-booking/internal/handler"
	"bus-ticket-booking/internal/queue"
	"bus-ticket-booking/internal/repository"
	"bus-ticket-booking/internal/service"
	"bus-ticket-booking/internal/worker"
	"bus-ticket-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	log := logger.WithComponent("server")
	defer logger.L.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatal("Failed to ensure schema", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	// repository
	seatRepo := repository.NewSeatRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// cache
	inventory := cache.NewRedisSeatInventory(rdb)
	ticketCache := cache.NewRedisTicketCache(rdb)
	sessions := cache.NewRedisSessionStore(rdb)

	ticketQueue, err := newTicketQueue(rdb, &cfg.Server)
	if err != nil {
		log.Fatal("Failed to initialize ticket queue", zap.Error(err))
	}

	// service
	seatService := service.NewSeatService(seatRepo, ticketRepo, inventory)
	ticketService := service.NewTicketService(pool, ticketRepo, seatRepo, userRepo, inventory, ticketCache, ticketQueue)
	paymentService := service.NewPaymentService(pool, paymentRepo, ticketRepo, ticketService, cfg.Server.InvoiceBaseURL)
	profileService := service.NewProfileService(userRepo)

	if cfg.Server.DemoToken != "" {
		if err := seedDemo(ctx, seatRepo, userRepo, sessions, cfg.Server.DemoToken); err != nil {
			log.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	// 座位表預熱；流水號從資料庫最大 id 之後接續
	if err := seatService.WarmUpAll(ctx); err != nil {
		log.Fatal("Failed to warm up seat inventory", zap.Error(err))
	}
	maxID, err := ticketRepo.MaxID(ctx)
	if err != nil {
		log.Fatal("Failed to load max ticket id", zap.Error(err))
	}
	if err := inventory.EnsureTicketSeq(ctx, maxID); err != nil {
		log.Fatal("Failed to restore ticket sequence", zap.Error(err))
	}

	// worker
	ticketWorker := worker.NewTicketWorker(ticketService, ticketQueue)
	if err := ticketWorker.Start(ctx); err != nil {
		log.Fatal("Failed to start ticket worker", zap.Error(err))
	}

	router := handler.NewRouter(sessions,
		handler.NewSeatHandler(seatService),
		handler.NewTicketHandler(ticketService),
		handler.NewPaymentHandler(paymentService),
		handler.NewUserHandler(profileService),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

func newTicketQueue(rdb *redis.Client, cfg *config.ServerConfig) (queue.TicketQueue, error) {
	switch cfg.QueueDriver {
	case "memory":
		return queue.NewTicketQueue(cfg.TicketQueueSize), nil
	case "redis", "":
		hostname, _ := os.Hostname()
		consumerID := fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
		return queue.NewRedisStreamTicketQueue(rdb, consumerID, nil)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.QueueDriver)
	}
}
