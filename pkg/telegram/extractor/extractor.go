// Package extractor собирает данные из последних сообщений канала по
// фиксированным шаблонам: имена пользователей, ссылки и телефоны.
package extractor

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"tgrelay/pkg/logger"
	tgx "tgrelay/pkg/telegram"
	"tgrelay/pkg/telegram/registry"

	"github.com/gotd/td/tg"
)

// Поддерживаемые виды извлечения.
const (
	KindUsernames = "usernames"
	KindLinks     = "links"
	KindPhones    = "phones"
)

var patterns = map[string]*regexp.Regexp{
	KindUsernames: regexp.MustCompile(`@([A-Za-z0-9_]{5,32})`),
	KindLinks:     regexp.MustCompile(`t\.me/([A-Za-z0-9_+/]+)`),
	KindPhones:    regexp.MustCompile(`\+?[0-9\s\-()]{8,}`),
}

// historyPageSize — серверный потолок одного запроса истории. Лимиты
// больше сотни выбираются страницами от новых сообщений к старым.
const historyPageSize = 100

// historyItem — одно сообщение страницы: ID для смещения следующей
// страницы и текст. У служебных сообщений текст пустой.
type historyItem struct {
	ID   int
	Text string
}

// pageFunc возвращает одну страницу истории строго старше offsetID.
type pageFunc func(ctx context.Context, offsetID, limit int) ([]historyItem, error)

// Extract сканирует до limit последних сообщений канала и возвращает
// уникальные совпадения в отсортированном виде. Неподдерживаемый вид
// отклоняется до каких-либо сетевых вызовов.
func Extract(ctx context.Context, reg *registry.Registry, lg *logger.Broadcaster, phone, channelLink, kind string, limit int) ([]string, error) {
	if _, ok := patterns[kind]; !ok {
		return nil, fmt.Errorf("Invalid extraction type.")
	}

	h, ok := reg.Get(phone)
	if !ok {
		return nil, fmt.Errorf("Account is not online.")
	}

	username, err := tgx.ExtractUsername(channelLink)
	if err != nil {
		return nil, err
	}
	ch, err := tgx.ResolveChannel(ctx, h.API, username)
	if err != nil {
		return nil, fmt.Errorf("канал не найден: %w", err)
	}
	peer := &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}

	lg.Logf("[EXTRACTOR] %s: извлечение %s из %s, до %d сообщений", phone, kind, channelLink, limit)

	fetch := func(ctx context.Context, offsetID, limit int) ([]historyItem, error) {
		history, err := h.API.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			OffsetID: offsetID,
			Limit:    limit,
		})
		if err != nil {
			return nil, err
		}
		messages, ok := history.(*tg.MessagesChannelMessages)
		if !ok {
			return nil, fmt.Errorf("неожиданный тип истории: %T", history)
		}
		// Служебные сообщения тоже попадают на страницу: их ID двигают
		// смещение, иначе страница из одних вступлений остановит обход.
		items := make([]historyItem, 0, len(messages.Messages))
		for _, m := range messages.Messages {
			item := historyItem{ID: m.GetID()}
			if msg, ok := m.(*tg.Message); ok {
				item.Text = msg.Message
			}
			items = append(items, item)
		}
		return items, nil
	}

	texts, err := collectHistory(ctx, fetch, limit)
	if err != nil {
		return nil, err
	}

	results := Collect(texts, kind)
	lg.Logf("[EXTRACTOR] %s: найдено %d уникальных значений", phone, len(results))
	return results, nil
}

// collectHistory выбирает историю страницами, пока не наберётся limit
// сообщений или история не кончится. Сообщения приходят от новых к
// старым, смещением служит ID последнего сообщения страницы.
func collectHistory(ctx context.Context, fetch pageFunc, limit int) ([]string, error) {
	var texts []string
	offsetID := 0
	remaining := limit
	for remaining > 0 {
		page := remaining
		if page > historyPageSize {
			page = historyPageSize
		}
		items, err := fetch(ctx, offsetID, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			if item.Text != "" {
				texts = append(texts, item.Text)
			}
		}
		remaining -= len(items)
		offsetID = items[len(items)-1].ID
	}
	return texts, nil
}

// Collect применяет шаблон вида извлечения к текстам, убирает дубликаты
// и возвращает значения в отсортированном порядке.
func Collect(texts []string, kind string) []string {
	re, ok := patterns[kind]
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	for _, text := range texts {
		switch kind {
		case KindPhones:
			// У телефонов важен весь матч, а не группа.
			for _, match := range re.FindAllString(text, -1) {
				seen[match] = struct{}{}
			}
		default:
			for _, match := range re.FindAllStringSubmatch(text, -1) {
				value := match[1]
				switch kind {
				case KindUsernames:
					if !strings.HasPrefix(value, "@") {
						value = "@" + value
					}
				case KindLinks:
					if !strings.HasPrefix(value, "t.me/") {
						value = "t.me/" + value
					}
				}
				seen[value] = struct{}{}
			}
		}
	}

	results := make([]string, 0, len(seen))
	for v := range seen {
		results = append(results, v)
	}
	sort.Strings(results)
	return results
}
