// Package rules содержит чистую логику сопоставления входящих сообщений
// с правилами аккаунта. Снимок собирается один раз при подключении и
// дальше не меняется: правки конфигурации применяются после переподключения.
package rules

import (
	"strconv"
	"strings"

	"tgrelay/models"
)

// Источники ответа на личное сообщение.
const (
	ReplyAuto  = "auto_reply"
	ReplySmart = "smart_selling"
)

// Reply — один ответ, который нужно отправить на личное сообщение.
type Reply struct {
	Source  string
	Message string
}

type smartRule struct {
	message   string
	must      []string
	maybe     []string
	exclusive bool
}

// Snapshot — неизменяемый срез конфигурации аккаунта на момент подключения.
type Snapshot struct {
	rules        []models.ForwardingRule
	autoMessage  string
	autoKeywords []string
	smart        *smartRule
}

// splitKeywords разбирает список ключевых слов через запятую:
// пробелы обрезаются, регистр опускается, пустые элементы выбрасываются.
func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// BuildSnapshot собирает снимок из активных правил и настроек ответов.
// Неактивные правила отбрасываются здесь, чтобы дальше их не проверять.
func BuildSnapshot(ruleList []models.ForwardingRule, auto *models.AutoReplyConfig, smart *models.SmartSellingConfig) Snapshot {
	var snap Snapshot
	for _, r := range ruleList {
		if strings.EqualFold(r.Status, models.RuleStatusActive) {
			snap.rules = append(snap.rules, r)
		}
	}
	if auto != nil && auto.Message != "" {
		snap.autoMessage = auto.Message
		snap.autoKeywords = splitKeywords(auto.Keywords)
	}
	if smart != nil && smart.Enabled && smart.Message != "" {
		snap.smart = &smartRule{
			message:   smart.Message,
			must:      splitKeywords(smart.MustContain),
			maybe:     splitKeywords(smart.MaybeContain),
			exclusive: smart.Exclusive,
		}
	}
	return snap
}

// HasForwarding сообщает, есть ли в снимке хоть одно активное правило.
func (s Snapshot) HasForwarding() bool { return len(s.rules) > 0 }

// HasReplies сообщает, нужно ли вообще слушать личные сообщения.
func (s Snapshot) HasReplies() bool { return s.autoMessage != "" || s.smart != nil }

// SourceChats возвращает уникальные числовые идентификаторы чатов-источников.
// Нечисловые источники пропускаются: такие правила никогда не совпадут.
func (s Snapshot) SourceChats() []int64 {
	seen := make(map[int64]struct{})
	var chats []int64
	for _, r := range s.rules {
		id, err := strconv.ParseInt(strings.TrimSpace(r.SourceChat), 10, 64)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		chats = append(chats, id)
	}
	return chats
}

// Matches возвращает правила, источник которых равен чату события.
func (s Snapshot) Matches(chatID int64) []models.ForwardingRule {
	var matched []models.ForwardingRule
	for _, r := range s.rules {
		id, err := strconv.ParseInt(strings.TrimSpace(r.SourceChat), 10, 64)
		if err != nil {
			continue
		}
		if id == chatID {
			matched = append(matched, r)
		}
	}
	return matched
}

func containsAll(text string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(text, k) {
			return false
		}
	}
	return true
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// PrivateReplies возвращает ответы на личное входящее сообщение.
// Автоответ: без ключевых слов срабатывает всегда, с ключевыми — по
// вхождению любого слова. Умный ответ — по таблице истинности must/maybe.
// При exclusive умный ответ подавляется, если автоответ уже сработал.
func (s Snapshot) PrivateReplies(text string) []Reply {
	lowered := strings.ToLower(text)
	var replies []Reply

	autoFired := false
	if s.autoMessage != "" {
		if len(s.autoKeywords) == 0 || containsAny(lowered, s.autoKeywords) {
			replies = append(replies, Reply{Source: ReplyAuto, Message: s.autoMessage})
			autoFired = true
		}
	}

	if s.smart != nil {
		if s.smart.exclusive && autoFired {
			return replies
		}
		should := false
		switch {
		case len(s.smart.must) > 0 && len(s.smart.maybe) > 0:
			should = containsAll(lowered, s.smart.must) && containsAny(lowered, s.smart.maybe)
		case len(s.smart.must) > 0:
			should = containsAll(lowered, s.smart.must)
		case len(s.smart.maybe) > 0:
			should = containsAny(lowered, s.smart.maybe)
		}
		if should {
			replies = append(replies, Reply{Source: ReplySmart, Message: s.smart.message})
		}
	}
	return replies
}
