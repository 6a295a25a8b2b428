package model

// BookingRequest 建立車票的請求；只在使用者確認後產生
type BookingRequest struct {
	ClassOfferingID int `json:"jadwal_kelas_bus_id" binding:"required,min=1"`
	SeatID          int `json:"kursi_id" binding:"required,min=1"`

	// IdempotencyKey 以 Idempotency-Key header 送出，不進 body
	IdempotencyKey string `json:"-"`
}

// APIResponse 後端統一回應格式
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// 錯誤回應 code
const (
	CodeSeatUnavailable = "SEAT_UNAVAILABLE"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInternal        = "INTERNAL_ERROR"
	CodeInProgress      = "REQUEST_IN_PROGRESS"
)
