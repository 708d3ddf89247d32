package accounts

import (
	"database/sql"
	"errors"
	"log"

	"tgrelay/internal/httputil"
	"tgrelay/models"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/storage"
	"tgrelay/pkg/telegram/onboarding"
	"tgrelay/pkg/telegram/registry"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	DB       *storage.DB
	Registry *registry.Registry
	Log      *logger.Broadcaster
	ApiID    int
	ApiHash  string
}

func NewHandler(db *storage.DB, reg *registry.Registry, lg *logger.Broadcaster, apiID int, apiHash string) *Handler {
	return &Handler{DB: db, Registry: reg, Log: lg, ApiID: apiID, ApiHash: apiHash}
}

// ListAccounts возвращает аккаунты с живым статусом поверх сохранённого:
// истину о подключении знает только реестр.
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.DB.GetAllAccounts()
	if err != nil {
		log.Printf("[ERROR] не удалось получить аккаунты: %v", err)
		httputil.RespondError(c, 500, "DB error")
		return
	}

	for i := range accounts {
		if _, ok := h.Registry.Get(accounts[i].Phone); ok {
			accounts[i].Status = models.StatusOnline
		} else if accounts[i].Status == models.StatusOnline {
			// В БД статус мог застрять с прошлого запуска.
			accounts[i].Status = models.StatusOffline
		}
	}
	c.JSON(200, accounts)
}

// DeleteAccount удаляет запись аккаунта. Живое подключение, если оно есть,
// останавливается: супервизор сам снимет запись из реестра.
func (h *Handler) DeleteAccount(c *gin.Context) {
	phone := c.Param("phone")

	if handle, ok := h.Registry.Get(phone); ok {
		handle.Stop()
	}

	if err := h.DB.DeleteAccount(phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondError(c, 404, "Account not found")
			return
		}
		log.Printf("[ERROR] не удалось удалить аккаунт %s: %v", phone, err)
		httputil.RespondError(c, 500, "DB error")
		return
	}
	h.Log.Logf("[ACCOUNTS] аккаунт %s удалён", phone)
	c.JSON(200, gin.H{"status": "success"})
}

// AddAccount поднимает WebSocket и ведёт онбординг нового аккаунта.
func (h *Handler) AddAccount(c *gin.Context) {
	conn, err := acceptWS(c)
	if err != nil {
		log.Printf("[AUTH] не удалось открыть WebSocket: %v", err)
		return
	}
	defer closeWS(conn)

	owner := c.Query("owner")
	if owner == "" {
		owner = "admin"
	}

	cfg := onboarding.Config{ApiID: h.ApiID, ApiHash: h.ApiHash, Owner: owner}
	onboarding.Start(c.Request.Context(), h.DB, h.Registry, h.Log, cfg, wsChannel{conn: conn})
}
