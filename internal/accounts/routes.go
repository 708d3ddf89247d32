package accounts

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты управления аккаунтами.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("", h.ListAccounts)
	r.DELETE("/:phone", h.DeleteAccount)
}

// SetupWS регистрирует WebSocket-вход онбординга вне группы /api.
func SetupWS(r *gin.Engine, h *Handler) {
	r.GET("/ws/add_account", h.AddAccount)
}
