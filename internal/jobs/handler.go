package jobs

import (
	"tgrelay/internal/httputil"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/telegram/broadcast"
	"tgrelay/pkg/telegram/extractor"
	"tgrelay/pkg/telegram/groupjoin"
	"tgrelay/pkg/telegram/linkcheck"
	"tgrelay/pkg/telegram/registry"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Registry *registry.Registry
	Log      *logger.Broadcaster
}

func NewHandler(reg *registry.Registry, lg *logger.Broadcaster) *Handler {
	return &Handler{Registry: reg, Log: lg}
}

type joinRequest struct {
	Phone string   `json:"phone" binding:"required"`
	Links []string `json:"links" binding:"required"`
}

// JoinGroups вступает в группы по списку ссылок. Запрос синхронный:
// между вступлениями выдерживается пауза, ответ приходит после всех попыток.
func (h *Handler) JoinGroups(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, 400, "Invalid request format")
		return
	}

	results := groupjoin.JoinAll(c.Request.Context(), h.Registry, h.Log, req.Phone, req.Links)
	c.JSON(200, gin.H{"results": results})
}

type validateRequest struct {
	Link string `json:"link" binding:"required"`
}

// ValidateLink проверяет ссылку любым подключённым аккаунтом.
func (h *Handler) ValidateLink(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, 400, "Invalid request format")
		return
	}

	status, err := linkcheck.Validate(c.Request.Context(), h.Registry, h.Log, req.Link)
	if err != nil {
		httputil.RespondError(c, 400, err.Error())
		return
	}
	c.JSON(200, gin.H{"link": req.Link, "status": status})
}

type extractRequest struct {
	Phone   string `json:"phone" binding:"required"`
	Channel string `json:"channel" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Limit   int    `json:"limit"`
}

// ExtractData собирает из истории канала имена пользователей, ссылки
// или телефоны.
func (h *Handler) ExtractData(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, 400, "Invalid request format")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	items, err := extractor.Extract(c.Request.Context(), h.Registry, h.Log, req.Phone, req.Channel, req.Type, req.Limit)
	if err != nil {
		httputil.RespondError(c, 400, err.Error())
		return
	}
	c.JSON(200, gin.H{"type": req.Type, "count": len(items), "items": items})
}

type forwardRequest struct {
	Phone      string   `json:"phone" binding:"required"`
	MessageRef string   `json:"message_ref" binding:"required"`
	Targets    []string `json:"targets" binding:"required"`
	DelaySec   int      `json:"delay_sec"`
	CycleSec   int      `json:"cycle_sec"`
	HideSender bool     `json:"hide_sender"`
}

// StartForwarding запускает фоновую рассылку сообщения по списку целей.
// Ответ приходит сразу после валидации: сама рассылка идёт в фоне до
// остановки аккаунта.
func (h *Handler) StartForwarding(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, 400, "Invalid request format")
		return
	}

	if err := broadcast.Start(h.Registry, h.Log, req.Phone, req.MessageRef, req.DelaySec, req.CycleSec, req.Targets, req.HideSender); err != nil {
		httputil.RespondError(c, 400, err.Error())
		return
	}
	c.JSON(200, gin.H{"status": "started"})
}
