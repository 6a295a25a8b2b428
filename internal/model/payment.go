package model

import "time"

// PaymentMethod 付款方式
type PaymentMethod string

const (
	PaymentMethodXendit   PaymentMethod = "xendit"   // 線上 invoice，需要導轉
	PaymentMethodTransfer PaymentMethod = "transfer" // 銀行轉帳，等待人工確認
	PaymentMethodCash     PaymentMethod = "tunai"    // 櫃台付現
)

// PaymentMethods 提供給使用者的付款方式，順序固定
var PaymentMethods = []PaymentMethod{
	PaymentMethodXendit,
	PaymentMethodTransfer,
	PaymentMethodCash,
}

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodXendit, PaymentMethodTransfer, PaymentMethodCash:
		return true
	}
	return false
}

// RequiresRedirect 是否需要開啟 invoice 頁面
func (m PaymentMethod) RequiresRedirect() bool {
	return m == PaymentMethodXendit
}

// PaymentStatus 付款狀態
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

func (s PaymentStatus) IsFinal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed || s == PaymentStatusExpired
}

// CreatePaymentRequest 建立付款請求；導轉網址只在 xendit 時送出
type CreatePaymentRequest struct {
	TicketID           int           `json:"tiket_id" binding:"required,min=1"`
	Method             PaymentMethod `json:"metode" binding:"required"`
	SuccessRedirectURL string        `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string        `json:"failure_redirect_url,omitempty"`
}

// Payment 付款模型
type Payment struct {
	ID         int           `json:"id" db:"id"`
	TicketID   int           `json:"tiket_id" db:"ticket_id"`
	Method     PaymentMethod `json:"metode" db:"method"`
	Status     PaymentStatus `json:"status" db:"status"`
	Amount     float64       `json:"jumlah" db:"amount"`
	InvoiceURL string        `json:"invoice_url,omitempty" db:"invoice_url"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}
