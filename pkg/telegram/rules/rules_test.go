package rules

import (
	"testing"

	"tgrelay/models"
)

func activeRule(source, dest string) models.ForwardingRule {
	return models.ForwardingRule{SourceChat: source, DestinationChat: dest, Status: models.RuleStatusActive}
}

// TestMatchesOnlyBySource проверяет, что событие пересылается тогда и
// только тогда, когда активное правило совпадает по чату-источнику.
func TestMatchesOnlyBySource(t *testing.T) {
	snap := BuildSnapshot([]models.ForwardingRule{
		activeRule("-100123", "-100555"),
		activeRule("-100123", "-100777"),
		activeRule("-100999", "-100555"),
		{SourceChat: "-100123", DestinationChat: "-100888", Status: models.RuleStatusInactive},
	}, nil, nil)

	matched := snap.Matches(-100123)
	if len(matched) != 2 {
		t.Fatalf("ожидалось 2 правила, получено %d", len(matched))
	}
	for _, r := range matched {
		if r.SourceChat != "-100123" {
			t.Fatalf("совпало правило с чужим источником: %s", r.SourceChat)
		}
	}
	if got := snap.Matches(-100321); len(got) != 0 {
		t.Fatalf("для чужого чата не должно быть совпадений, получено %d", len(got))
	}
}

// TestSourceChatsDistinct проверяет уникальность источников и пропуск
// нечисловых идентификаторов.
func TestSourceChatsDistinct(t *testing.T) {
	snap := BuildSnapshot([]models.ForwardingRule{
		activeRule("-100123", "a"),
		activeRule("-100123", "b"),
		activeRule("-100999", "c"),
		activeRule("не число", "d"),
	}, nil, nil)

	chats := snap.SourceChats()
	if len(chats) != 2 {
		t.Fatalf("ожидалось 2 источника, получено %v", chats)
	}
}

// TestAutoReplyWithoutKeywords: без ключевых слов ответ отправляется
// на каждое личное сообщение, ровно один.
func TestAutoReplyWithoutKeywords(t *testing.T) {
	snap := BuildSnapshot(nil, &models.AutoReplyConfig{Message: "здравствуйте"}, nil)
	replies := snap.PrivateReplies("любой текст")
	if len(replies) != 1 {
		t.Fatalf("ожидался ровно один ответ, получено %d", len(replies))
	}
	if replies[0].Source != ReplyAuto || replies[0].Message != "здравствуйте" {
		t.Fatalf("неожиданный ответ: %+v", replies[0])
	}
}

// TestAutoReplyKeywordSubstring: ответ уходит только при вхождении
// ключевого слова в текст без учёта регистра.
func TestAutoReplyKeywordSubstring(t *testing.T) {
	snap := BuildSnapshot(nil, &models.AutoReplyConfig{Message: "прайс во вложении", Keywords: "Цена, прайс"}, nil)

	if got := snap.PrivateReplies("Подскажите ЦЕНУ товара"); len(got) != 1 {
		t.Fatalf("ключевое слово как подстрока должно сработать, получено %d", len(got))
	}
	if got := snap.PrivateReplies("просто привет"); len(got) != 0 {
		t.Fatalf("без ключевых слов ответа быть не должно, получено %d", len(got))
	}
}

// TestSmartSellingTruthTable перебирает все четыре комбинации пустоты
// списков must/maybe.
func TestSmartSellingTruthTable(t *testing.T) {
	cases := []struct {
		name  string
		must  string
		maybe string
		text  string
		want  bool
	}{
		{"оба списка, все must и один maybe", "купить, товар", "цена, доставка", "хочу купить товар, какая цена", true},
		{"оба списка, нет maybe", "купить, товар", "цена, доставка", "хочу купить товар", false},
		{"оба списка, не все must", "купить, товар", "цена", "какая цена товара", false},
		{"только must, все есть", "купить, товар", "", "хочу купить ваш товар", true},
		{"только must, не все", "купить, товар", "", "хочу купить", false},
		{"только maybe, один есть", "", "цена, доставка", "какая доставка", true},
		{"только maybe, ни одного", "", "цена, доставка", "просто привет", false},
		{"оба пустые — никогда", "", "", "купить товар цена доставка", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := BuildSnapshot(nil, nil, &models.SmartSellingConfig{
				Enabled:      true,
				Message:      "ответ",
				MustContain:  tc.must,
				MaybeContain: tc.maybe,
			})
			got := snap.PrivateReplies(tc.text)
			if (len(got) == 1) != tc.want {
				t.Fatalf("ожидалось срабатывание=%v, ответов %d", tc.want, len(got))
			}
		})
	}
}

// TestDualRepliesAdditive: по умолчанию автоответ и умный ответ
// срабатывают независимо — одно сообщение может получить оба.
func TestDualRepliesAdditive(t *testing.T) {
	snap := BuildSnapshot(nil,
		&models.AutoReplyConfig{Message: "автоответ"},
		&models.SmartSellingConfig{Enabled: true, Message: "умный ответ", MaybeContain: "цена"},
	)
	replies := snap.PrivateReplies("какая цена")
	if len(replies) != 2 {
		t.Fatalf("ожидалось два ответа, получено %d", len(replies))
	}
	if replies[0].Source != ReplyAuto || replies[1].Source != ReplySmart {
		t.Fatalf("неожиданный порядок ответов: %+v", replies)
	}
}

// TestDualRepliesExclusive: флаг exclusive подавляет умный ответ,
// если автоответ уже сработал.
func TestDualRepliesExclusive(t *testing.T) {
	snap := BuildSnapshot(nil,
		&models.AutoReplyConfig{Message: "автоответ"},
		&models.SmartSellingConfig{Enabled: true, Message: "умный ответ", MaybeContain: "цена", Exclusive: true},
	)
	replies := snap.PrivateReplies("какая цена")
	if len(replies) != 1 || replies[0].Source != ReplyAuto {
		t.Fatalf("ожидался только автоответ, получено %+v", replies)
	}

	// Автоответ с несовпавшими ключевыми словами не мешает умному ответу.
	snap = BuildSnapshot(nil,
		&models.AutoReplyConfig{Message: "автоответ", Keywords: "прайс"},
		&models.SmartSellingConfig{Enabled: true, Message: "умный ответ", MaybeContain: "цена", Exclusive: true},
	)
	replies = snap.PrivateReplies("какая цена")
	if len(replies) != 1 || replies[0].Source != ReplySmart {
		t.Fatalf("ожидался только умный ответ, получено %+v", replies)
	}
}

// TestDisabledSmartSelling: выключенный или пустой умный ответ не попадает в снимок.
func TestDisabledSmartSelling(t *testing.T) {
	snap := BuildSnapshot(nil, nil, &models.SmartSellingConfig{Enabled: false, Message: "ответ", MaybeContain: "цена"})
	if snap.HasReplies() {
		t.Fatalf("выключенная настройка не должна включать обработку личных сообщений")
	}
	snap = BuildSnapshot(nil, nil, &models.SmartSellingConfig{Enabled: true, MaybeContain: "цена"})
	if snap.HasReplies() {
		t.Fatalf("настройка без текста ответа не должна включать обработку")
	}
}
