package telegram

import (
	"fmt"
	"log"

	"tgrelay/models"
	"tgrelay/pkg/storage"

	"golang.org/x/net/proxy"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
)

// NewAccountClient создаёт клиента Telegram для аккаунта: сессия хранится в БД,
// при наличии прокси трафик идёт через SOCKS5.
func NewAccountClient(db *storage.DB, acc models.Account, handler telegram.UpdateHandler) (*telegram.Client, error) {
	var storage session.Storage = &session.StorageMemory{}
	if db != nil && acc.Phone != "" {
		storage = &DBSessionStorage{DB: db, Phone: acc.Phone}
	}

	opts := telegram.Options{SessionStorage: storage}
	if handler != nil {
		opts.UpdateHandler = handler
	}
	if acc.Proxy != nil {
		addr := fmt.Sprintf("%s:%d", acc.Proxy.IP, acc.Proxy.Port)
		var auth *proxy.Auth
		if acc.Proxy.Login != "" || acc.Proxy.Password != "" {
			auth = &proxy.Auth{User: acc.Proxy.Login, Password: acc.Proxy.Password}
		}
		d, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("proxy dialer: %w", err)
		}
		dc, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("proxy dialer missing context")
		}
		opts.Resolver = dcs.Plain(dcs.PlainOptions{Dial: dc.DialContext})
		log.Printf("[PROXY] %s via %s", acc.Phone, addr)
	}
	return telegram.NewClient(acc.ApiID, acc.ApiHash, opts), nil
}

// NewEphemeralClient создаёт клиента с сессией в памяти для онбординга.
// Сессия сохраняется в БД только после успешной авторизации.
func NewEphemeralClient(apiID int, apiHash string) (*telegram.Client, *session.StorageMemory) {
	mem := &session.StorageMemory{}
	client := telegram.NewClient(apiID, apiHash, telegram.Options{SessionStorage: mem})
	return client, mem
}
