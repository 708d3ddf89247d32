package logstream

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует трансляцию журнала.
func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/ws/logs", h.Stream)
}
