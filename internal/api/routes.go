package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the API under prefix plus the unprefixed root,
// health and metrics endpoints
func SetupRoutes(router *gin.Engine, h *Handler, prefix string) {
	router.GET("/", h.HandleRoot)
	router.GET("/health", h.HandleHealth)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	group := router.Group(prefix)
	group.POST("/identify", h.HandleIdentify)
	group.GET("/history", h.HandleHistory)
	group.DELETE("/history/:id", h.HandleDeleteHistory)
	group.POST("/feedback", h.HandleFeedback)
}
