package models

import "time"

// Статусы аккаунта. Переходы: Offline -> Connecting -> Online -> {Error, Offline}.
const (
	StatusOffline    = "Offline"
	StatusConnecting = "Connecting"
	StatusOnline     = "Online"
	StatusError      = "Error"
)

// Account — управляемый Telegram-аккаунт. SessionData хранит
// сериализованную сессию gotd, чтобы переподключаться без повторного входа.
type Account struct {
	ID          int       `json:"id"`
	Phone       string    `json:"phone"`
	ApiID       int       `json:"api_id"`
	ApiHash     string    `json:"api_hash"`
	SessionData string    `json:"-"`
	Status      string    `json:"status"`
	Owner       string    `json:"owner"`
	ProxyID     *int      `json:"proxy_id"`
	Proxy       *Proxy    `json:"proxy,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
