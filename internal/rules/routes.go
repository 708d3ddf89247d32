package rules

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты правил пересылки.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/forwarding", h.ListForwarding)
	r.POST("/forwarding", h.CreateForwarding)
	r.DELETE("/forwarding/:id", h.DeleteForwarding)
}
