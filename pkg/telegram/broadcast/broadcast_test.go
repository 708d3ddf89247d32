package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"tgrelay/pkg/logger"
	"tgrelay/pkg/telegram/registry"
)

// TestParseMessageRef проверяет разбор ссылок на сообщение.
func TestParseMessageRef(t *testing.T) {
	cases := []struct {
		ref      string
		wantChat string
		wantID   int
		wantErr  bool
	}{
		{"https://t.me/somechannel/1234", "somechannel", 1234, false},
		{"t.me/somechannel/1234/", "somechannel", 1234, false},
		{"somechannel/42", "somechannel", 42, false},
		{"https://t.me/somechannel/не-число", "", 0, true},
		{"1234", "", 0, true},
		{"", "", 0, true},
	}
	for _, tc := range cases {
		chat, id, err := ParseMessageRef(tc.ref)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: ожидалась ошибка", tc.ref)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: неожиданная ошибка: %v", tc.ref, err)
		}
		if chat != tc.wantChat || id != tc.wantID {
			t.Fatalf("%q: получено %q/%d", tc.ref, chat, id)
		}
	}
}

// TestStartRejectsBadRef: некорректная ссылка отклоняется синхронно,
// без каких-либо доставок.
func TestStartRejectsBadRef(t *testing.T) {
	reg := registry.New()
	reg.Put("+100", &registry.Handle{Phone: "+100"})

	err := Start(reg, logger.New(), "+100", "безссылки", 0, 0, []string{"a", "b"}, false)
	if err == nil {
		t.Fatalf("ожидалась ошибка разбора ссылки")
	}
}

// TestStartRejectsOffline: для неподключённого аккаунта задача не запускается.
func TestStartRejectsOffline(t *testing.T) {
	err := Start(registry.New(), logger.New(), "+100", "t.me/chat/1", 0, 0, []string{"a"}, false)
	if err == nil || err.Error() != "Account is not online" {
		t.Fatalf("ожидалась ошибка offline, получено %v", err)
	}
}

// TestRunContinuesPastFailures: неудача по одной цели не прерывает рассылку,
// пауза выдерживается после каждой попытки.
func TestRunContinuesPastFailures(t *testing.T) {
	var delivered []string
	var slept []time.Duration

	r := runner{
		deliver: func(ctx context.Context, target string) error {
			delivered = append(delivered, target)
			if target == "b" {
				return errors.New("FLOOD_WAIT")
			}
			return nil
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
		logf: func(string, ...any) {},
	}

	r.run(context.Background(), "+100", 5, []string{"a", "b", "c"}, 2*time.Second, 7*time.Second)

	if len(delivered) != 3 {
		t.Fatalf("ожидалось 3 попытки, получено %d", len(delivered))
	}
	// Начальная задержка плюс пауза после каждой из трёх целей.
	if len(slept) != 4 || slept[0] != 2*time.Second || slept[1] != 7*time.Second {
		t.Fatalf("неожиданные паузы: %v", slept)
	}
}

// TestRunStopsOnCancel: отмена контекста во время паузы завершает задачу.
func TestRunStopsOnCancel(t *testing.T) {
	var delivered int
	r := runner{
		deliver: func(ctx context.Context, target string) error {
			delivered++
			return nil
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
		logf: func(string, ...any) {},
	}
	r.run(context.Background(), "+100", 5, []string{"a", "b"}, time.Second, time.Second)
	if delivered != 0 {
		t.Fatalf("после отмены в начальной паузе доставок быть не должно, получено %d", delivered)
	}
}
