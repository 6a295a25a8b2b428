package payment

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"bus-ticket-booking/config"
	"bus-ticket-booking/internal/gateway"
	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultSuccessRedirectURL = "tiketbus://payment-callback?status=success"
	DefaultFailureRedirectURL = "tiketbus://payment-callback?status=failed"
)

// Result 建立付款的結果；RequiresRedirect 時由呼叫端開啟 RedirectURL
type Result struct {
	Payment          *model.Payment
	RedirectURL      string
	RequiresRedirect bool
}

type Handoff interface {
	// 可選的付款方式，固定順序
	Methods() []model.PaymentMethod
	// 為待付款的車票建立付款，同一張車票同時只允許一個請求
	Begin(ctx context.Context, ticket *model.Ticket, method model.PaymentMethod) (*Result, error)
	// 查詢付款狀態
	CheckStatus(ctx context.Context, paymentID int) (*model.Payment, error)
}

type HandoffImpl struct {
	gateway gateway.Gateway
	cfg     config.PaymentConfig

	mu       sync.Mutex
	inFlight map[int]bool
}

func NewHandoff(gw gateway.Gateway, cfg config.PaymentConfig) Handoff {
	if cfg.SuccessRedirectURL == "" {
		cfg.SuccessRedirectURL = DefaultSuccessRedirectURL
	}
	if cfg.FailureRedirectURL == "" {
		cfg.FailureRedirectURL = DefaultFailureRedirectURL
	}
	return &HandoffImpl{
		gateway:  gw,
		cfg:      cfg,
		inFlight: make(map[int]bool),
	}
}

func (h *HandoffImpl) Methods() []model.PaymentMethod {
	return append([]model.PaymentMethod(nil), model.PaymentMethods...)
}

func (h *HandoffImpl) Begin(ctx context.Context, ticket *model.Ticket, method model.PaymentMethod) (*Result, error) {
	if !ticket.AwaitingPayment() {
		return nil, apperrors.ErrTicketNotAwaitingPay
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedPayment, method)
	}

	log := logger.WithComponent("payment").With(
		zap.Int("ticket_id", ticket.ID),
		zap.String("method", string(method)),
	)

	h.mu.Lock()
	if h.inFlight[ticket.ID] {
		h.mu.Unlock()
		return nil, apperrors.ErrPaymentInProgress
	}
	h.inFlight[ticket.ID] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.inFlight, ticket.ID)
		h.mu.Unlock()
	}()

	req := model.CreatePaymentRequest{
		TicketID: ticket.ID,
		Method:   method,
	}
	if method.RequiresRedirect() {
		req.SuccessRedirectURL = h.cfg.SuccessRedirectURL
		req.FailureRedirectURL = h.cfg.FailureRedirectURL
	}

	payment, err := h.gateway.CreatePayment(ctx, req)
	if err != nil {
		log.Error("failed to create payment", zap.Error(err))
		return nil, fmt.Errorf("create payment: %w", err)
	}

	result := &Result{
		Payment:          payment,
		RequiresRedirect: method.RequiresRedirect(),
	}
	if result.RequiresRedirect {
		if payment.InvoiceURL == "" {
			log.Error("redirect payment without invoice url", zap.Int("payment_id", payment.ID))
			return nil, fmt.Errorf("%w: missing invoice_url", apperrors.ErrMalformedResponse)
		}
		result.RedirectURL = payment.InvoiceURL
	}

	log.Info("payment created", zap.Int("payment_id", payment.ID), zap.String("status", string(payment.Status)))
	return result, nil
}

func (h *HandoffImpl) CheckStatus(ctx context.Context, paymentID int) (*model.Payment, error) {
	if paymentID <= 0 {
		return nil, apperrors.ErrInvalidInput
	}
	payment, err := h.gateway.CheckPaymentStatus(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("check payment status: %w", err)
	}
	return payment, nil
}

// Callback 付款頁導回 App 時帶的參數
type Callback struct {
	Status     model.PaymentStatus
	InvoiceID  string
	ExternalID string // 車票代碼
}

// ParseCallback 解析 tiketbus://payment-callback?status=... 導回網址。
// 無法辨識的狀態一律視為 pending，由後端查詢確認。
func ParseCallback(raw string) (Callback, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Callback{}, fmt.Errorf("%w: callback url: %v", apperrors.ErrInvalidInput, err)
	}
	q := u.Query()

	return Callback{
		Status:     callbackStatus(q.Get("status")),
		InvoiceID:  q.Get("invoice_id"),
		ExternalID: q.Get("external_id"),
	}, nil
}

func callbackStatus(s string) model.PaymentStatus {
	switch s {
	case "success", "PAID":
		return model.PaymentStatusPaid
	case "failed":
		return model.PaymentStatusFailed
	case "EXPIRED":
		return model.PaymentStatusExpired
	default:
		return model.PaymentStatusPending
	}
}
