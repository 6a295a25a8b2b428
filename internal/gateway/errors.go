package gateway

import (
	"fmt"
	"net/http"

	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"
)

// APIError 後端回傳的錯誤；Unwrap 回到分類用的 sentinel error
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%v: HTTP %d %s: %s", e.Unwrap(), e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%v: HTTP %d: %s", e.Unwrap(), e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return classify(e.Status, e.Code)
}

// classify 只依 HTTP 狀態碼與結構化 code 判斷，不比對錯誤訊息文字
func classify(status int, code string) error {
	switch {
	case status == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case status == http.StatusConflict, code == model.CodeSeatUnavailable:
		return apperrors.ErrSeatUnavailable
	default:
		return apperrors.ErrBackend
	}
}

func newAPIError(status int, code, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}
