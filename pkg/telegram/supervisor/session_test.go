package supervisor

import (
	"context"
	"testing"

	"tgrelay/models"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/telegram/rules"

	"github.com/gotd/td/tg"
)

// TestMarkedChannelID проверяет преобразование ID канала в маркированную
// форму -100xxxxxxxxxx и обратно.
func TestMarkedChannelID(t *testing.T) {
	if got := markedChannelID(123456789); got != -1000123456789 {
		t.Fatalf("неожиданная маркировка: %d", got)
	}
	if got := unmarkChannelID(-1000123456789); got != 123456789 {
		t.Fatalf("неожиданная размаркировка: %d", got)
	}
	// Немаркированные значения возвращаются как есть.
	if got := unmarkChannelID(123456789); got != 123456789 {
		t.Fatalf("немаркированный ID изменился: %d", got)
	}
}

// TestRememberChannels проверяет накопление access hash из сущностей обновлений.
func TestRememberChannels(t *testing.T) {
	s := newSession("+100", nil, rules.Snapshot{}, logger.New())
	s.rememberChannels(tg.Entities{Channels: map[int64]*tg.Channel{
		42: {ID: 42, AccessHash: 777},
	}})
	hash, ok := s.channelHash(42)
	if !ok || hash != 777 {
		t.Fatalf("access hash не запомнен: %d %v", hash, ok)
	}
	if _, ok := s.channelHash(43); ok {
		t.Fatalf("неизвестный канал не должен находиться")
	}
}

// TestDestPeerNumeric проверяет разрешение числовых назначений без сети:
// известный канал адресуется, неизвестный даёт ошибку на само правило.
func TestDestPeerNumeric(t *testing.T) {
	s := newSession("+100", nil, rules.Snapshot{}, logger.New())
	s.rememberChannels(tg.Entities{Channels: map[int64]*tg.Channel{
		42: {ID: 42, AccessHash: 777},
	}})

	peer, err := s.destPeer(context.Background(), "-1000000000042")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	ch, ok := peer.(*tg.InputPeerChannel)
	if !ok || ch.ChannelID != 42 || ch.AccessHash != 777 {
		t.Fatalf("неожиданный peer: %#v", peer)
	}

	if _, err := s.destPeer(context.Background(), "-1000000000099"); err == nil {
		t.Fatalf("неизвестный канал должен давать ошибку")
	}
	if _, err := s.destPeer(context.Background(), ""); err == nil {
		t.Fatalf("пустое назначение должно давать ошибку")
	}
}

// TestChatMessageForwards проверяет пересылку из обычной группы: её ID
// в правиле записан отрицательным числом, источником служит InputPeerChat.
func TestChatMessageForwards(t *testing.T) {
	snap := rules.BuildSnapshot([]models.ForwardingRule{
		{SourceChat: "-12345", DestinationChat: "-1000000000042", Status: models.RuleStatusActive},
	}, nil, nil)
	s := newSession("+100", nil, snap, logger.New())
	s.rememberChannels(tg.Entities{Channels: map[int64]*tg.Channel{
		42: {ID: 42, AccessHash: 777},
	}})

	var calls int
	var fromGot, toGot tg.InputPeerClass
	var msgIDGot int
	s.forward = func(ctx context.Context, from tg.InputPeerClass, msgID int, to tg.InputPeerClass) error {
		calls++
		fromGot, msgIDGot, toGot = from, msgID, to
		return nil
	}

	s.handleNewMessage(context.Background(), tg.Entities{}, &tg.UpdateNewMessage{
		Message: &tg.Message{ID: 7, PeerID: &tg.PeerChat{ChatID: 12345}, Message: "привет"},
	})
	if calls != 1 {
		t.Fatalf("ожидалась одна пересылка, выполнено %d", calls)
	}
	chat, ok := fromGot.(*tg.InputPeerChat)
	if !ok || chat.ChatID != 12345 {
		t.Fatalf("неожиданный источник: %#v", fromGot)
	}
	if msgIDGot != 7 {
		t.Fatalf("неожиданный ID сообщения: %d", msgIDGot)
	}
	ch, ok := toGot.(*tg.InputPeerChannel)
	if !ok || ch.ChannelID != 42 || ch.AccessHash != 777 {
		t.Fatalf("неожиданное назначение: %#v", toGot)
	}

	// Группа без правила ничего не пересылает.
	s.handleNewMessage(context.Background(), tg.Entities{}, &tg.UpdateNewMessage{
		Message: &tg.Message{ID: 8, PeerID: &tg.PeerChat{ChatID: 999}, Message: "мимо"},
	})
	if calls != 1 {
		t.Fatalf("сообщение чужой группы не должно пересылаться, вызовов: %d", calls)
	}
}

// TestChannelMatchBothForms проверяет, что источник правила совпадает
// и во внутренней, и в маркированной записи.
func TestChannelMatchBothForms(t *testing.T) {
	snap := rules.BuildSnapshot([]models.ForwardingRule{
		{SourceChat: "42", DestinationChat: "dest", Status: models.RuleStatusActive},
		{SourceChat: "-1000000000042", DestinationChat: "dest2", Status: models.RuleStatusActive},
	}, nil, nil)

	matched := snap.Matches(42)
	matched = append(matched, snap.Matches(markedChannelID(42))...)
	if len(matched) != 2 {
		t.Fatalf("ожидалось совпадение обеих форм, получено %d", len(matched))
	}
}
