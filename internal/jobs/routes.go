package jobs

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты фоновых задач и проверок.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/joiner/join_groups", h.JoinGroups)
	r.POST("/validator/validate_link", h.ValidateLink)
	r.POST("/extractor/extract", h.ExtractData)
	r.POST("/forwarder/start_forwarding", h.StartForwarding)
}
