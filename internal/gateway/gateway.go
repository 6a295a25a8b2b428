package gateway

import (
	"context"

	"bus-ticket-booking/internal/model"
)

// Gateway 後端 REST API；座位、車票、付款狀態都以後端為準
type Gateway interface {
	// 取得某班次某艙等的座位表與單價
	GetSeats(ctx context.Context, scheduleID int, classOfferingID int) (*model.SeatMap, error)
	// 建立車票（唯一的提交點）
	CreateTicket(ctx context.Context, req model.BookingRequest) (*model.Ticket, error)
	// 建立付款
	CreatePayment(ctx context.Context, req model.CreatePaymentRequest) (*model.Payment, error)
	// 查詢付款狀態
	CheckPaymentStatus(ctx context.Context, paymentID int) (*model.Payment, error)
	// 取得登入者資料，用來預填乘客資料
	GetProfile(ctx context.Context) (*model.Profile, error)
}

// TokenSource 提供 bearer token；回傳空字串代表未登入
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc 讓一般函式實作 TokenSource
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken 固定 token，測試與 CLI 使用
func StaticToken(token string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) {
		return token, nil
	})
}
