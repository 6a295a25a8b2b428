package handler

import (
	"net/http"
	"strings"

	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/internal/service"

	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader 客戶端重試時帶相同的值
const IdempotencyKeyHeader = "Idempotency-Key"

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("tiket", h.CreateTicket)
	r.GET("tiket/:id", h.GetTicket)
}

func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req model.BookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))

	ticket, err := h.service.CreateTicket(c, currentUserID(c), req)
	if err != nil {
		handleError(c, err, "CreateTicket")
		return
	}

	respondSuccess(c, http.StatusCreated, ticket)
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := BindID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.service.GetTicket(c, currentUserID(c), id)
	if err != nil {
		handleError(c, err, "GetTicket")
		return
	}

	respondSuccess(c, http.StatusOK, ticket)
}
