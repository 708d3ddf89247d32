package accounts

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
)

// serverFrame — исходящее сообщение онбординга.
type serverFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// clientFrame — ответ пользователя на запрос ввода.
type clientFrame struct {
	Data string `json:"data"`
}

func acceptWS(c *gin.Context) (*websocket.Conn, error) {
	return websocket.Accept(c.Writer, c.Request, nil)
}

func closeWS(conn *websocket.Conn) {
	conn.Close(websocket.StatusNormalClosure, "")
}

// wsChannel реализует onboarding.Channel поверх WebSocket-подключения.
type wsChannel struct {
	conn *websocket.Conn
}

func (w wsChannel) Prompt(ctx context.Context, text string) (string, error) {
	if err := w.write(ctx, serverFrame{Type: "prompt", Message: text}); err != nil {
		return "", err
	}
	var in clientFrame
	if err := wsjson.Read(ctx, w.conn, &in); err != nil {
		return "", err
	}
	return in.Data, nil
}

func (w wsChannel) Success(ctx context.Context, text string) error {
	return w.write(ctx, serverFrame{Type: "success", Message: text})
}

func (w wsChannel) Fail(ctx context.Context, text string) error {
	return w.write(ctx, serverFrame{Type: "error", Message: text})
}

func (w wsChannel) write(ctx context.Context, v any) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return wsjson.Write(ctx, w.conn, v)
}
