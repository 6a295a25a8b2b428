package handler

import (
	"net/http"

	"bus-ticket-booking/internal/service"

	"github.com/gin-gonic/gin"
)

type SeatHandler struct {
	service service.SeatService
}

func NewSeatHandler(service service.SeatService) *SeatHandler {
	return &SeatHandler{service: service}
}

func (h *SeatHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("jadwal/:id/kursi", h.GetSeats)
}

type seatQuery struct {
	ClassOfferingID int `form:"jadwal_kelas_bus_id" binding:"required,min=1"`
}

func (h *SeatHandler) GetSeats(c *gin.Context) {
	scheduleID, ok := BindID(c, "id")
	if !ok {
		return
	}
	var query seatQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	seatMap, err := h.service.GetSeatMap(c, scheduleID, query.ClassOfferingID)
	if err != nil {
		handleError(c, err, "GetSeats")
		return
	}

	respondSuccess(c, http.StatusOK, seatMap)
}
