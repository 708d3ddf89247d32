// Package broadcast реализует фоновую рассылку одного сообщения по списку
// целей. Вызов возвращается сразу после проверки входных данных; ход
// рассылки виден только через журнал.
package broadcast

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"tgrelay/pkg/logger"
	tgx "tgrelay/pkg/telegram"
	"tgrelay/pkg/telegram/registry"

	"github.com/gotd/td/tg"
)

// ParseMessageRef разбирает ссылку на сообщение вида <префикс>/<чат>/<ID>,
// например https://t.me/somechannel/1234. Берутся два последних сегмента.
func ParseMessageRef(ref string) (string, int, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(ref), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", 0, fmt.Errorf("ссылка %q не содержит чат и ID сообщения", ref)
	}
	chat := parts[len(parts)-2]
	if chat == "" {
		return "", 0, fmt.Errorf("ссылка %q не содержит чат", ref)
	}
	msgID, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", 0, fmt.Errorf("ссылка %q содержит нечисловой ID сообщения", ref)
	}
	return chat, msgID, nil
}

// Start проверяет запрос и запускает рассылку в фоне. Некорректная ссылка
// или отключённый аккаунт отклоняются сразу, до каких-либо сетевых вызовов.
func Start(reg *registry.Registry, lg *logger.Broadcaster, phone, messageRef string, delaySec, cycleSec int, targets []string, hideSender bool) error {
	chat, msgID, err := ParseMessageRef(messageRef)
	if err != nil {
		lg.Logf("[BROADCAST] %s: %v", phone, err)
		return err
	}

	h, ok := reg.Get(phone)
	if !ok {
		return fmt.Errorf("Account is not online")
	}

	// Задача намеренно живёт на фоновом контексте: отключение аккаунта
	// её не останавливает, вызовы просто начнут завершаться ошибками.
	r := runner{
		deliver: deliverFunc(h.API, chat, msgID, hideSender),
		sleep:   tgx.Wait,
		logf:    lg.Logf,
	}
	go r.run(context.Background(), phone, msgID, targets,
		time.Duration(delaySec)*time.Second, time.Duration(cycleSec)*time.Second)

	return nil
}

// runner изолирует цикл рассылки от сети, чтобы его можно было проверить.
type runner struct {
	deliver func(ctx context.Context, target string) error
	sleep   func(ctx context.Context, d time.Duration) error
	logf    func(format string, args ...any)
}

// run выполняет рассылку: начальная задержка, затем цель за целью с паузой
// после каждой попытки. Неудача по одной цели не прерывает остальные.
func (r runner) run(ctx context.Context, phone string, msgID int, targets []string, initial, cycle time.Duration) {
	r.logf("[BROADCAST] %s: запуск рассылки сообщения %d по %d целям", phone, msgID, len(targets))
	if err := r.sleep(ctx, initial); err != nil {
		return
	}
	for _, target := range targets {
		if err := r.deliver(ctx, target); err != nil {
			r.logf("[BROADCAST] %s: не удалось доставить в %q: %v", phone, target, err)
		} else {
			r.logf("[BROADCAST] %s: доставлено в %q", phone, target)
		}
		if err := r.sleep(ctx, cycle); err != nil {
			return
		}
	}
	r.logf("[BROADCAST] %s: рассылка сообщения %d завершена", phone, msgID)
}

// deliverFunc собирает доставку в одну цель: обычная пересылка с пометкой
// об источнике или копия без атрибуции.
func deliverFunc(api *tg.Client, chat string, msgID int, hideSender bool) func(ctx context.Context, target string) error {
	return func(ctx context.Context, target string) error {
		srcName, err := tgx.ExtractUsername(chat)
		if err != nil {
			return err
		}
		src, err := tgx.ResolveChannel(ctx, api, srcName)
		if err != nil {
			return fmt.Errorf("источник не найден: %w", err)
		}

		destName, err := tgx.ExtractUsername(target)
		if err != nil {
			return err
		}
		dest, err := tgx.ResolvePeer(ctx, api, destName)
		if err != nil {
			return fmt.Errorf("цель не найдена: %w", err)
		}

		if hideSender {
			text, err := fetchMessageText(ctx, api, src, msgID)
			if err != nil {
				return err
			}
			_, err = api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
				Peer:     dest,
				Message:  text,
				RandomID: rand.Int63(),
			})
			return err
		}

		_, err = api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
			FromPeer: &tg.InputPeerChannel{ChannelID: src.ID, AccessHash: src.AccessHash},
			ID:       []int{msgID},
			RandomID: []int64{rand.Int63()},
			ToPeer:   dest,
		})
		return err
	}
}

// fetchMessageText достаёт текст исходного сообщения для копии без атрибуции.
func fetchMessageText(ctx context.Context, api *tg.Client, ch *tg.Channel, msgID int) (string, error) {
	res, err := api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: &tg.InputChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: msgID}},
	})
	if err != nil {
		return "", err
	}
	messages, ok := res.(*tg.MessagesChannelMessages)
	if !ok {
		return "", fmt.Errorf("неожиданный тип ответа: %T", res)
	}
	for _, m := range messages.Messages {
		if msg, ok := m.(*tg.Message); ok && msg.ID == msgID {
			return msg.Message, nil
		}
	}
	return "", fmt.Errorf("сообщение %d не найдено", msgID)
}
