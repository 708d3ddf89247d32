package rules

import (
	"database/sql"
	"errors"
	"log"
	"strconv"

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

func (h *Handler) ListForwarding(c *gin.Context) {
	rules, err := h.DB.GetForwardingRules()
	if err != nil {
		log.Printf("[ERROR] не удалось получить правила пересылки: %v", err)
		httputil.RespondError(c, 500, "DB error")
		return
	}
	c.JSON(200, rules)
}

type createRuleRequest struct {
	AccountPhone    string `json:"account_phone" binding:"required"`
	SourceChat      string `json:"source_chat" binding:"required"`
	DestinationChat string `json:"destination_chat" binding:"required"`
	Filters         string `json:"filters"`
	Status          string `json:"status"`
}

func (h *Handler) CreateForwarding(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, 400, "Invalid request format")
		return
	}

	rule, err := h.DB.CreateForwardingRule(models.ForwardingRule{
		AccountPhone:    req.AccountPhone,
		SourceChat:      req.SourceChat,
		DestinationChat: req.DestinationChat,
		Filters:         req.Filters,
		Status:          req.Status,
	})
	if err != nil {
		httputil.RespondError(c, 500, "DB error")
		return
	}

	// Снимок правил у живой сессии не обновляется на лету.
	h.Log.Logf("[RULES] правило %d создано для %s; вступит в силу после переподключения аккаунта", rule.ID, rule.AccountPhone)
	c.JSON(201, rule)
}

func (h *Handler) DeleteForwarding(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httputil.RespondError(c, 400, "Invalid rule ID")
		return
	}

	if err := h.DB.DeleteForwardingRule(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondError(c, 404, "Rule not found")
			return
		}
		log.Printf("[ERROR] не удалось удалить правило %d: %v", id, err)
		httputil.RespondError(c, 500, "DB error")
		return
	}
	h.Log.Logf("[RULES] правило %d удалено; вступит в силу после переподключения аккаунта", id)
	c.JSON(200, gin.H{"status": "success"})
}
