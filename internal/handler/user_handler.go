package handler

import (
	"net/http"

	"bus-ticket-booking/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.ProfileService
}

func NewUserHandler(service service.ProfileService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("user", h.GetProfile)
}

// GetProfile 直接回傳使用者物件，不包 envelope
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.Get(c, currentUserID(c))
	if err != nil {
		handleError(c, err, "GetProfile")
		return
	}

	c.JSON(http.StatusOK, profile)
}
