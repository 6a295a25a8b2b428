package handler

import (
	"bus-ticket-booking/internal/cache"

	"github.com/gin-gonic/gin"
)

type RouteRegistrar interface {
	RegisterRoutes(r gin.IRouter)
}

// NewRouter 所有 /api 路由都需要 Bearer token
func NewRouter(sessions cache.SessionStore, handlers ...RouteRegistrar) *gin.Engine {
	router := gin.Default()

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api", AuthMiddleware(sessions))
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return router
}
