package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"
)

// ExtractUsername приводит ссылку или упоминание к голому имени пользователя.
// Принимаются формы https://t.me/name, t.me/name, @name и просто name.
func ExtractUsername(link string) (string, error) {
	name := strings.TrimSpace(link)
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "t.me/")
	name = strings.TrimPrefix(name, "@")
	name = strings.Trim(name, "/")
	if name == "" {
		return "", fmt.Errorf("пустая ссылка")
	}
	return name, nil
}

// InviteHash возвращает хеш пригласительной ссылки вида t.me/+xxxx или
// t.me/joinchat/xxxx и признак того, что ссылка вообще пригласительная.
func InviteHash(link string) (string, bool) {
	name, err := ExtractUsername(link)
	if err != nil {
		return "", false
	}
	if h, ok := strings.CutPrefix(name, "+"); ok {
		return h, true
	}
	if h, ok := strings.CutPrefix(name, "joinchat/"); ok {
		return h, true
	}
	return "", false
}

// FindChannel находит канал или супергруппу в списке чатов резолва.
func FindChannel(chats []tg.ChatClass) (*tg.Channel, error) {
	for _, peer := range chats {
		if ch, ok := peer.(*tg.Channel); ok {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("канал не найден")
}

// ResolvePeer разрешает имя пользователя в адресуемый peer:
// канал, супергруппу или пользователя.
func ResolvePeer(ctx context.Context, api *tg.Client, username string) (tg.InputPeerClass, error) {
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, err
	}
	for _, peer := range resolved.GetChats() {
		if ch, ok := peer.(*tg.Channel); ok {
			return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}, nil
		}
	}
	for _, peer := range resolved.GetUsers() {
		if u, ok := peer.(*tg.User); ok {
			return &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash}, nil
		}
	}
	return nil, fmt.Errorf("имя %q ни к чему не привязано", username)
}

// ResolveChannel разрешает имя пользователя в канал или супергруппу.
func ResolveChannel(ctx context.Context, api *tg.Client, username string) (*tg.Channel, error) {
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, err
	}
	return FindChannel(resolved.GetChats())
}

// Wait ждёт указанный интервал, прерываясь по отмене контекста,
// чтобы паузы антифлуда не блокировали остановку задачи.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
