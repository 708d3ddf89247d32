// Package linkcheck проверяет, на что указывает telegram-ссылка, силами
// любого подключённого аккаунта.
package linkcheck

import (
	"context"
	"fmt"
	"strings"

	"tgrelay/pkg/logger"
	tgx "tgrelay/pkg/telegram"
	"tgrelay/pkg/telegram/registry"

	"github.com/gotd/td/tg"
)

// Validate разрешает ссылку произвольным подключённым аккаунтом и
// классифицирует её. Несуществующее имя — штатный отрицательный результат,
// а не сбой.
func Validate(ctx context.Context, reg *registry.Registry, lg *logger.Broadcaster, link string) (string, error) {
	h, ok := reg.Any()
	if !ok {
		return "", fmt.Errorf("No accounts are online to perform the check.")
	}
	lg.Logf("[VALIDATOR] проверка ссылки %s аккаунтом %s", link, h.Phone)

	username, err := tgx.ExtractUsername(link)
	if err != nil {
		return "", fmt.Errorf("Not Found (Invalid or Expired Link)")
	}

	resolved, err := h.API.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("Not Found (Invalid or Expired Link)")
		}
		return "", fmt.Errorf("An unexpected error occurred: %v", err)
	}

	return fmt.Sprintf("Active (%s)", Classify(resolved.GetChats(), resolved.GetUsers())), nil
}

// isNotFound отличает несуществующее имя от прочих ошибок API.
func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "USERNAME_NOT_OCCUPIED") || strings.Contains(msg, "USERNAME_INVALID")
}

// Classify определяет тип сущности, на которую указала ссылка.
func Classify(chats []tg.ChatClass, users []tg.UserClass) string {
	for _, peer := range chats {
		if ch, ok := peer.(*tg.Channel); ok {
			if ch.Broadcast {
				return "Public Channel"
			}
			return "Public Group"
		}
	}
	for _, peer := range users {
		if u, ok := peer.(*tg.User); ok {
			if u.Bot {
				return "Bot"
			}
			return "User"
		}
	}
	return "Unknown"
}
