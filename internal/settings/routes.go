package settings

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты настроек ответов.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/auto_reply/:phone", h.GetAutoReply)
	r.POST("/auto_reply/:phone", h.SaveAutoReply)
	r.GET("/smart_selling/:phone", h.GetSmartSelling)
	r.POST("/smart_selling/:phone", h.SaveSmartSelling)
}
