package settings

import (
	"log"

	"tgrelay/internal/httputil"
	"tgrelay/models"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/storage"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	DB  *storage.DB
	Log *logger.Broadcaster
}

func NewHandler(db *storage.DB, lg *logger.Broadcaster) *Handler {
	return &Handler{DB: db, Log: lg}
}

// GetAutoReply отдаёт настройку автоответа. Отсутствие записи — не ошибка:
// возвращается пустая настройка с заполненным телефоном.
func (h *Handler) GetAutoReply(c *gin.Context) {
	phone := c.Param("phone")
	cfg, err := h.DB.GetAutoReply(phone)
	if err != nil {
		log.Printf("[ERROR] не удалось получить автоответ для %s: %v", phone, err)
		httputil.RespondError(c, 500, "DB error")
		return
	}
	if cfg == nil {
		cfg = &models.AutoReplyConfig{AccountPhone: phone}
	}
	c.JSON(200, cfg)
}

type autoReplyRequest struct {
	Message  string `json:"message" binding:"required"`
	Keywords string `json:"keywords"`
}

func (h *Handler) SaveAutoReply(c *gin.Context) {
	phone := c.Param("phone")
	var req autoReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, 400, "Invalid request format")
		return
	}

	cfg := models.AutoReplyConfig{AccountPhone: phone, Message: req.Message, Keywords: req.Keywords}
	if err := h.DB.SaveAutoReply(cfg); err != nil {
		httputil.RespondError(c, 500, "DB error")
		return
	}
	h.Log.Logf("[SETTINGS] автоответ для %s сохранён; вступит в силу после переподключения аккаунта", phone)
	c.JSON(200, gin.H{"status": "success"})
}

func (h *Handler) GetSmartSelling(c *gin.Context) {
	phone := c.Param("phone")
	cfg, err := h.DB.GetSmartSelling(phone)
	if err != nil {
		log.Printf("[ERROR] не удалось получить умные ответы для %s: %v", phone, err)
		httputil.RespondError(c, 500, "DB error")
		return
	}
	if cfg == nil {
		cfg = &models.SmartSellingConfig{AccountPhone: phone}
	}
	c.JSON(200, cfg)
}

type smartSellingRequest struct {
	Enabled      bool   `json:"enabled"`
	MustContain  string `json:"must_contain"`
	MaybeContain string `json:"maybe_contain"`
	Message      string `json:"message"`
	Exclusive    bool   `json:"exclusive"`
}

func (h *Handler) SaveSmartSelling(c *gin.Context) {
	phone := c.Param("phone")
	var req smartSellingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, 400, "Invalid request format")
		return
	}
	if req.Enabled && req.Message == "" {
		httputil.RespondError(c, 400, "Message is required when smart selling is enabled")
		return
	}

	cfg := models.SmartSellingConfig{
		AccountPhone: phone,
		Enabled:      req.Enabled,
		MustContain:  req.MustContain,
		MaybeContain: req.MaybeContain,
		Message:      req.Message,
		Exclusive:    req.Exclusive,
	}
	if err := h.DB.SaveSmartSelling(cfg); err != nil {
		httputil.RespondError(c, 500, "DB error")
		return
	}
	h.Log.Logf("[SETTINGS] умные ответы для %s сохранены; вступят в силу после переподключения аккаунта", phone)
	c.JSON(200, gin.H{"status": "success"})
}
