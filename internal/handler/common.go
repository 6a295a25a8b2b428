package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bus-ticket-booking/internal/cache"
	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, model.CodeInvalidInput, "Invalid request format")
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondError(c, http.StatusBadRequest, model.CodeInvalidInput, "Invalid request format")
		return err
	}
	return nil
}

// BindID 解析路徑上的正整數 id
func BindID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, model.CodeInvalidInput, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// AuthMiddleware 以 Bearer token 查出 user id
func AuthMiddleware(sessions cache.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(c, http.StatusUnauthorized, model.CodeUnauthorized, "Unauthenticated")
			c.Abort()
			return
		}

		userID, err := sessions.UserID(c, strings.TrimSpace(token))
		if err != nil {
			if !errors.Is(err, apperrors.ErrUnauthorized) {
				logger.WithComponent("handler").Error("session lookup failed", zap.Error(err))
				respondError(c, http.StatusInternalServerError, model.CodeInternal, "Internal server error")
			} else {
				respondError(c, http.StatusUnauthorized, model.CodeUnauthorized, "Unauthenticated")
			}
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int {
	return c.GetInt(userIDKey)
}

func respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, model.APIResponse{
		Success: true,
		Data:    data,
	})
}

func respondError(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, model.APIResponse{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// handleError 將 service 錯誤對應到 HTTP 狀態碼；座位衝突一律回 409 + SEAT_UNAVAILABLE
func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSeatUnavailable):
		log.Info("Seat unavailable")
		respondError(c, http.StatusConflict, model.CodeSeatUnavailable, "Kursi sudah dipesan")
	case errors.Is(err, apperrors.ErrRequestInProgress):
		log.Info("Duplicate request in progress")
		respondError(c, http.StatusTooManyRequests, model.CodeInProgress, "Request is being processed")
	case errors.Is(err, apperrors.ErrUnauthorized):
		log.Warn("Unauthorized")
		respondError(c, http.StatusUnauthorized, model.CodeUnauthorized, "Unauthenticated")
	case errors.Is(err, apperrors.ErrTicketNotFound),
		errors.Is(err, apperrors.ErrPaymentNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrScheduleNotFound),
		errors.Is(err, apperrors.ErrSeatNotFound):
		log.Warn("Not found")
		respondError(c, http.StatusNotFound, model.CodeNotFound, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrUnsupportedPayment),
		errors.Is(err, apperrors.ErrTicketNotAwaitingPay),
		errors.Is(err, apperrors.ErrInvalidPaymentState),
		errors.Is(err, apperrors.ErrInvalidTicketStatus):
		log.Warn("Invalid input")
		respondError(c, http.StatusUnprocessableEntity, model.CodeInvalidInput, err.Error())
	default:
		log.Error("Unexpected error")
		respondError(c, http.StatusInternalServerError, model.CodeInternal, "Internal server error")
	}
}
