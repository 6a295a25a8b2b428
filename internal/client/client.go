package client

import (
	"fmt"

	"bus-ticket-booking/config"
	"bus-ticket-booking/internal/auth"
	"bus-ticket-booking/internal/gateway"
	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/passenger"
	"bus-ticket-booking/internal/session"
	"bus-ticket-booking/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client App 端的進入點：由 config 組出 token store 與 Gateway，每個選位畫面開一個 BookingSession
type Client struct {
	cfg     *config.Config
	tokens  auth.TokenStore
	gateway gateway.Gateway
	strict  bool
}

type Option func(*Client)

// WithStrictPassengerFormat 啟用 NIK 與手機號碼格式檢查
func WithStrictPassengerFormat() Option {
	return func(c *Client) { c.strict = true }
}

// New token 存在 rdb 的 cfg.Session.TokenKey；後端回 401 時清除
func New(cfg *config.Config, rdb *redis.Client, opts ...Option) (*Client, error) {
	tokens := auth.NewRedisTokenStore(rdb, cfg.Session.TokenKey)

	gw, err := gateway.NewHTTPGateway(cfg.Gateway, tokens, &gateway.HTTPGatewayOptions{
		OnUnauthorized: auth.ClearOnUnauthorized(tokens),
	})
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	c := &Client{
		cfg:     cfg,
		tokens:  tokens,
		gateway: gw,
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.WithComponent("client").Info("client ready",
		zap.String("api_url", cfg.Gateway.BaseURL),
		zap.Duration("timeout", cfg.Gateway.Timeout),
	)
	return c, nil
}

func (c *Client) Tokens() auth.TokenStore {
	return c.tokens
}

func (c *Client) Gateway() gateway.Gateway {
	return c.gateway
}

// OpenBookingSession 付款導轉網址取自 cfg.Payment
func (c *Client) OpenBookingSession(sc model.ScheduleClassContext) (*session.BookingSession, error) {
	return session.NewBookingSession(c.gateway, sc, &session.Options{
		Validator: passenger.NewValidator(&passenger.ValidatorOptions{StrictFormat: c.strict}),
		Payment:   c.cfg.Payment,
	})
}
