package logger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Broadcaster дублирует строки журнала всем подключённым WebSocket-клиентам.
// Сами строки при этом всегда попадают и в обычный лог процесса.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}
}

func New() *Broadcaster {
	return &Broadcaster{subs: make(map[*websocket.Conn]struct{})}
}

// Subscribe регистрирует нового подписчика журнала.
func (b *Broadcaster) Subscribe(c *websocket.Conn) {
	b.mu.Lock()
	b.subs[c] = struct{}{}
	b.mu.Unlock()
	log.Printf("[LOGS] подписчик подключён, всего %d", b.count())
}

// Unsubscribe убирает подписчика. Повторный вызов безопасен.
func (b *Broadcaster) Unsubscribe(c *websocket.Conn) {
	b.mu.Lock()
	delete(b.subs, c)
	b.mu.Unlock()
	log.Printf("[LOGS] подписчик отключён, всего %d", b.count())
}

func (b *Broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Logf пишет строку в лог процесса и рассылает её подписчикам.
// Ошибки отправки не прерывают рассылку: мёртвый подписчик отвалится
// сам при следующем чтении его соединения.
func (b *Broadcaster) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)

	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.subs))
	for c := range b.subs {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.Write(ctx, websocket.MessageText, []byte(msg))
		cancel()
	}
}
