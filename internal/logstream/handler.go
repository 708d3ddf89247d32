package logstream

import (
	"log"

	"tgrelay/pkg/logger"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	Log *logger.Broadcaster
}

func NewHandler(lg *logger.Broadcaster) *Handler {
	return &Handler{Log: lg}
}

// Stream подписывает клиента на журнал и держит подключение до разрыва.
// Входящие кадры не используются: чтение нужно только чтобы заметить
// закрытие со стороны клиента.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[LOGS] не удалось открыть WebSocket: %v", err)
		return
	}

	h.Log.Subscribe(conn)
	defer h.Log.Unsubscribe(conn)
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		if _, _, err := conn.Read(c.Request.Context()); err != nil {
			return
		}
	}
}
