package apperrors

import "errors"

// 客戶端：與後端互動的錯誤分類
var (
	ErrTransport           = errors.New("transport error")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrSeatUnavailable     = errors.New("seat no longer available")
	ErrBackend             = errors.New("backend error")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")
)

// 客戶端：本地狀態機錯誤
var (
	ErrSeatNotInMap         = errors.New("seat not in current seat map")
	ErrNoSelection          = errors.New("no seat selected")
	ErrInvalidPassenger     = errors.New("passenger record incomplete")
	ErrFetchInProgress      = errors.New("seat map fetch already in progress")
	ErrStaleResult          = errors.New("result belongs to a detached screen")
	ErrDetached             = errors.New("screen detached")
	ErrSubmissionInProgress = errors.New("booking submission in progress")
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrSeatRefreshRequired  = errors.New("seat map must be refreshed after a seat conflict")
	ErrNotRetryable         = errors.New("failed submission is not retryable")
	ErrSeatMapNotLoaded     = errors.New("seat map not loaded")
	ErrUnsupportedPayment   = errors.New("unsupported payment method")
	ErrTicketNotAwaitingPay = errors.New("ticket is not awaiting payment")
	ErrPaymentInProgress    = errors.New("payment creation in progress")
)

// 後端 sandbox
var (
	ErrSeatNotFound        = errors.New("seat not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidTicketStatus = errors.New("invalid ticket status")
	ErrScheduleNotFound    = errors.New("schedule class offering not found")
	ErrSeatMapNotWarmed    = errors.New("seat inventory not warmed up")
	ErrInvalidPaymentState = errors.New("invalid payment status")
	ErrRequestInProgress   = errors.New("request with the same idempotency key in progress")
)
