package supervisor

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"tgrelay/models"
	"tgrelay/pkg/logger"
	tgx "tgrelay/pkg/telegram"
	"tgrelay/pkg/telegram/rules"

	"github.com/gotd/td/tg"
)

// channelIDOffset — смещение "маркированных" идентификаторов каналов,
// в каком виде их обычно копируют из клиентских приложений: -100xxxxxxxxxx.
const channelIDOffset = 1000000000000

// markedChannelID переводит внутренний ID канала в маркированную форму.
func markedChannelID(id int64) int64 { return -(channelIDOffset + id) }

// unmarkChannelID возвращает внутренний ID канала из маркированной формы.
// Для немаркированных значений возвращает аргумент как есть.
func unmarkChannelID(id int64) int64 {
	if id < -channelIDOffset {
		return -id - channelIDOffset
	}
	return id
}

// session держит состояние обработчиков одного живого подключения:
// снимок правил и access hash каналов, встреченных в обновлениях.
type session struct {
	phone string
	api   *tg.Client
	snap  rules.Snapshot
	lg    *logger.Broadcaster

	// forward отделяет пересылку от сети ради тестов обработчиков.
	forward func(ctx context.Context, from tg.InputPeerClass, msgID int, to tg.InputPeerClass) error

	mu       sync.Mutex
	channels map[int64]int64 // ID канала -> access hash
	resolved map[string]*tg.InputPeerChannel
}

func newSession(phone string, api *tg.Client, snap rules.Snapshot, lg *logger.Broadcaster) *session {
	s := &session{
		phone:    phone,
		api:      api,
		snap:     snap,
		lg:       lg,
		channels: make(map[int64]int64),
		resolved: make(map[string]*tg.InputPeerChannel),
	}
	s.forward = func(ctx context.Context, from tg.InputPeerClass, msgID int, to tg.InputPeerClass) error {
		_, err := s.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
			FromPeer: from,
			ID:       []int{msgID},
			RandomID: []int64{rand.Int63()},
			ToPeer:   to,
		})
		return err
	}
	return s
}

// attach регистрирует обработчики событий в диспетчере. Ошибки внутри
// обработчиков подавляются: одно неудачное правило не должно ронять сессию.
// Каналы и супергруппы приходят через UpdateNewChannelMessage, личные
// сообщения и обычные группы — через UpdateNewMessage.
func (s *session) attach(d *tg.UpdateDispatcher) {
	if s.snap.HasForwarding() {
		d.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
			s.handleChannelMessage(ctx, e, u)
			return nil
		})
	}
	if s.snap.HasForwarding() || s.snap.HasReplies() {
		d.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
			s.handleNewMessage(ctx, e, u)
			return nil
		})
	}
}

// handleNewMessage разбирает, куда пришло сообщение: личные сообщения
// идут в ответы, сообщения обычных групп — в пересылку по правилам.
func (s *session) handleNewMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) {
	msg, ok := u.Message.(*tg.Message)
	if !ok {
		return
	}
	switch peer := msg.PeerID.(type) {
	case *tg.PeerUser:
		if !msg.Out && s.snap.HasReplies() {
			s.handlePrivateMessage(ctx, e, msg, peer)
		}
	case *tg.PeerChat:
		if s.snap.HasForwarding() {
			s.handleChatMessage(ctx, msg, peer)
		}
	}
}

// rememberChannels запоминает access hash каналов из сущностей обновления —
// без него нельзя адресовать канал в последующих запросах.
func (s *session) rememberChannels(e tg.Entities) {
	s.mu.Lock()
	for _, ch := range e.Channels {
		s.channels[ch.ID] = ch.AccessHash
	}
	s.mu.Unlock()
}

func (s *session) channelHash(id int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.channels[id]
	return h, ok
}

// handleChannelMessage пересылает сообщение по всем совпавшим правилам.
// Неудача одного правила логируется и не мешает остальным.
func (s *session) handleChannelMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) {
	msg, ok := u.Message.(*tg.Message)
	if !ok {
		return
	}
	peer, ok := msg.PeerID.(*tg.PeerChannel)
	if !ok {
		return
	}
	s.rememberChannels(e)

	// Источник в правиле может быть записан и внутренним ID, и в
	// маркированной форме -100xxxxxxxxxx — принимаем обе.
	matched := s.snap.Matches(peer.ChannelID)
	matched = append(matched, s.snap.Matches(markedChannelID(peer.ChannelID))...)
	if len(matched) == 0 {
		return
	}
	s.lg.Logf("[FORWARD] %s: новое сообщение в %d, правил: %d", s.phone, peer.ChannelID, len(matched))

	srcHash, ok := s.channelHash(peer.ChannelID)
	if !ok {
		s.lg.Logf("[FORWARD] %s: неизвестен access hash источника %d", s.phone, peer.ChannelID)
		return
	}
	from := &tg.InputPeerChannel{ChannelID: peer.ChannelID, AccessHash: srcHash}
	s.forwardMatched(ctx, from, peer.ChannelID, msg.ID, matched)
}

// handleChatMessage пересылает сообщения обычных групп. Их источник в
// правилах записывается отрицательным числом -ChatID; access hash
// обычным группам не нужен.
func (s *session) handleChatMessage(ctx context.Context, msg *tg.Message, peer *tg.PeerChat) {
	matched := s.snap.Matches(-peer.ChatID)
	if len(matched) == 0 {
		return
	}
	s.lg.Logf("[FORWARD] %s: новое сообщение в группе %d, правил: %d", s.phone, peer.ChatID, len(matched))
	s.forwardMatched(ctx, &tg.InputPeerChat{ChatID: peer.ChatID}, -peer.ChatID, msg.ID, matched)
}

// forwardMatched пересылает одно сообщение по всем совпавшим правилам.
func (s *session) forwardMatched(ctx context.Context, from tg.InputPeerClass, src int64, msgID int, matched []models.ForwardingRule) {
	for _, rule := range matched {
		dest, err := s.destPeer(ctx, rule.DestinationChat)
		if err != nil {
			s.lg.Logf("[FORWARD] %s: некорректное назначение %q: %v", s.phone, rule.DestinationChat, err)
			continue
		}
		if err := s.forward(ctx, from, msgID, dest); err != nil {
			s.lg.Logf("[FORWARD] %s: ошибка пересылки в %q: %v", s.phone, rule.DestinationChat, err)
			continue
		}
		s.lg.Logf("[FORWARD] %s: переслано из %d в %q", s.phone, src, rule.DestinationChat)
	}
}

// destPeer превращает назначение правила в адресуемый peer. Числовое
// назначение ищется среди каналов, уже встреченных в обновлениях;
// нечисловое трактуется как имя пользователя и разрешается через API.
func (s *session) destPeer(ctx context.Context, dest string) (tg.InputPeerClass, error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return nil, fmt.Errorf("пустое назначение")
	}

	if id, err := strconv.ParseInt(dest, 10, 64); err == nil {
		cid := unmarkChannelID(id)
		if cid <= 0 {
			return nil, fmt.Errorf("некорректный идентификатор канала %d", id)
		}
		hash, ok := s.channelHash(cid)
		if !ok {
			return nil, fmt.Errorf("канал %d ещё не встречался, access hash неизвестен", cid)
		}
		return &tg.InputPeerChannel{ChannelID: cid, AccessHash: hash}, nil
	}

	username, err := tgx.ExtractUsername(dest)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	cached, ok := s.resolved[username]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	ch, err := tgx.ResolveChannel(ctx, s.api, username)
	if err != nil {
		return nil, err
	}
	peer := &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
	s.mu.Lock()
	s.resolved[username] = peer
	s.channels[ch.ID] = ch.AccessHash
	s.mu.Unlock()
	return peer, nil
}

// handlePrivateMessage отвечает на входящие личные сообщения по снимку
// настроек автоответа и умных ответов.
func (s *session) handlePrivateMessage(ctx context.Context, e tg.Entities, msg *tg.Message, peer *tg.PeerUser) {
	replies := s.snap.PrivateReplies(msg.Message)
	if len(replies) == 0 {
		return
	}

	user, ok := e.Users[peer.UserID]
	if !ok {
		s.lg.Logf("[REPLY] %s: отправитель %d не найден в сущностях обновления", s.phone, peer.UserID)
		return
	}
	to := &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}

	for _, rep := range replies {
		req := &tg.MessagesSendMessageRequest{
			Peer:     to,
			Message:  rep.Message,
			RandomID: rand.Int63(),
		}
		req.SetReplyTo(&tg.InputReplyToMessage{ReplyToMsgID: msg.ID})
		if _, err := s.api.MessagesSendMessage(ctx, req); err != nil {
			s.lg.Logf("[REPLY] %s: ошибка ответа (%s) пользователю %d: %v", s.phone, rep.Source, peer.UserID, err)
			continue
		}
		s.lg.Logf("[REPLY] %s: отправлен ответ (%s) пользователю %d", s.phone, rep.Source, peer.UserID)
	}
}
