package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bus-ticket-booking/config"
	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

const (
	maxResponseBytes = 4 << 20

	IdempotencyKeyHeader = "Idempotency-Key"
)

// HTTPGatewayOptions 可注入的 HTTP client 與 401 callback；nil 或零值時使用預設
type HTTPGatewayOptions struct {
	HTTPClient *http.Client
	// OnUnauthorized 收到 401 時呼叫，由登入模組決定是否清除 token
	OnUnauthorized func(ctx context.Context)
}

type HTTPGatewayImpl struct {
	baseURL        *url.URL
	client         *http.Client
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
}

// envelope 後端統一回應格式 {success, data, message, code}
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

// NewHTTPGateway 建立 HTTP 版 Gateway。tokens 為 nil 時不帶 Authorization。
func NewHTTPGateway(cfg config.GatewayConfig, tokens TokenSource, opts *HTTPGatewayOptions) (Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be absolute", apperrors.ErrInvalidInput, cfg.BaseURL)
	}
	if tokens == nil {
		tokens = StaticToken("")
	}

	g := &HTTPGatewayImpl{
		baseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
	}
	if opts != nil {
		if opts.HTTPClient != nil {
			g.client = opts.HTTPClient
		}
		g.onUnauthorized = opts.OnUnauthorized
	}
	return g, nil
}

func (g *HTTPGatewayImpl) GetSeats(ctx context.Context, scheduleID int, classOfferingID int) (*model.SeatMap, error) {
	query := url.Values{}
	query.Set("jadwal_kelas_bus_id", strconv.Itoa(classOfferingID))

	var seatMap model.SeatMap
	path := fmt.Sprintf("/api/jadwal/%d/kursi", scheduleID)
	if err := g.do(ctx, http.MethodGet, path, query, nil, nil, true, &seatMap); err != nil {
		return nil, err
	}

	// kursi 缺少或為 null 時視為合法的空座位表
	if seatMap.Seats == nil {
		seatMap.Seats = []model.Seat{}
	}
	return &seatMap, nil
}

func (g *HTTPGatewayImpl) CreateTicket(ctx context.Context, req model.BookingRequest) (*model.Ticket, error) {
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers[IdempotencyKeyHeader] = req.IdempotencyKey
	}

	var ticket model.Ticket
	if err := g.do(ctx, http.MethodPost, "/api/tiket", nil, req, headers, true, &ticket); err != nil {
		return nil, err
	}
	if ticket.ID <= 0 {
		return nil, fmt.Errorf("%w: ticket without id", apperrors.ErrMalformedResponse)
	}
	return &ticket, nil
}

func (g *HTTPGatewayImpl) CreatePayment(ctx context.Context, req model.CreatePaymentRequest) (*model.Payment, error) {
	var payment model.Payment
	if err := g.do(ctx, http.MethodPost, "/api/pembayaran", nil, req, nil, true, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (g *HTTPGatewayImpl) CheckPaymentStatus(ctx context.Context, paymentID int) (*model.Payment, error) {
	var payment model.Payment
	path := fmt.Sprintf("/api/pembayaran/%d/check-status", paymentID)
	if err := g.do(ctx, http.MethodGet, path, nil, nil, nil, true, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetProfile /api/user 直接回傳使用者物件，沒有 envelope
func (g *HTTPGatewayImpl) GetProfile(ctx context.Context) (*model.Profile, error) {
	var profile model.Profile
	if err := g.do(ctx, http.MethodGet, "/api/user", nil, nil, nil, false, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (g *HTTPGatewayImpl) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body interface{},
	headers map[string]string,
	enveloped bool,
	out interface{},
) error {
	log := logger.WithComponent("gateway").With(zap.String("method", method), zap.String("path", path))
	start := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := g.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	token, err := g.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("read body failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return fmt.Errorf("%w: read body: %v", apperrors.ErrTransport, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := newAPIError(resp.StatusCode, env.Code, env.Message)
		if resp.StatusCode == http.StatusUnauthorized && g.onUnauthorized != nil {
			g.onUnauthorized(ctx)
		}
		log.Warn("backend returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("code", env.Code),
			zap.Error(apiErr),
		)
		return apiErr
	}

	if decodeErr != nil {
		log.Warn("invalid JSON response", zap.Int("status", resp.StatusCode), zap.Error(decodeErr))
		return fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, decodeErr)
	}

	data := json.RawMessage(raw)
	if enveloped {
		if !env.Success {
			apiErr := newAPIError(resp.StatusCode, env.Code, env.Message)
			log.Warn("backend reported failure", zap.String("code", env.Code), zap.Error(apiErr))
			return apiErr
		}
		data = env.Data
	}

	if out != nil {
		if len(data) == 0 || string(data) == "null" {
			return fmt.Errorf("%w: missing data", apperrors.ErrMalformedResponse)
		}
		if err := json.Unmarshal(data, out); err != nil {
			log.Warn("unexpected payload shape", zap.Error(err))
			return fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
		}
	}

	log.Debug("request completed", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return nil
}
