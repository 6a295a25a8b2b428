package handler

import (
	"net/http"

	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("pembayaran", h.CreatePayment)
	r.GET("pembayaran/:id/check-status", h.CheckStatus)
	r.POST("pembayaran/:id/simulate", h.Simulate)
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req model.CreatePaymentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	payment, err := h.service.Create(c, currentUserID(c), req)
	if err != nil {
		handleError(c, err, "CreatePayment")
		return
	}

	respondSuccess(c, http.StatusCreated, payment)
}

func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	id, ok := BindID(c, "id")
	if !ok {
		return
	}

	payment, err := h.service.CheckStatus(c, currentUserID(c), id)
	if err != nil {
		handleError(c, err, "CheckPaymentStatus")
		return
	}

	respondSuccess(c, http.StatusOK, payment)
}

type simulateRequest struct {
	Status model.PaymentStatus `json:"status" binding:"required"`
}

// Simulate sandbox 用：模擬付款閘道回報結果
func (h *PaymentHandler) Simulate(c *gin.Context) {
	id, ok := BindID(c, "id")
	if !ok {
		return
	}
	var req simulateRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	payment, err := h.service.Settle(c, currentUserID(c), id, req.Status)
	if err != nil {
		handleError(c, err, "SimulatePayment")
		return
	}

	respondSuccess(c, http.StatusOK, payment)
}
