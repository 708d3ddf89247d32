// Package supervisor управляет жизненным циклом одного подключённого
// аккаунта: Offline -> Connecting -> Online -> {Error, Offline}.
package supervisor

import (
	"context"
	"errors"

	"tgrelay/models"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/storage"
	tgx "tgrelay/pkg/telegram"
	"tgrelay/pkg/telegram/registry"
	"tgrelay/pkg/telegram/rules"

	"github.com/gotd/td/tg"
)

// errDuplicate сигнализирует, что аккаунт уже подключён другим клиентом.
var errDuplicate = errors.New("аккаунт уже подключён")

// Run подключает аккаунт и блокируется до отключения или фатальной ошибки.
// Запускается в отдельной горутине на каждый аккаунт. Ошибка подключения
// фатальна для аккаунта: повторных попыток внутри супервизора нет.
func Run(db *storage.DB, reg *registry.Registry, lg *logger.Broadcaster, acc models.Account) {
	phone := acc.Phone
	// Статусом аккаунта владеет супервизор живого подключения. Пока
	// аккаунт числится в реестре, второй Run не трогает ни БД, ни сеть.
	if _, ok := reg.Get(phone); ok {
		lg.Logf("[WORKER] аккаунт %s уже подключён, повторный запуск пропущен", phone)
		return
	}

	lg.Logf("[WORKER] подключение аккаунта %s", phone)
	_ = db.UpdateAccountStatus(phone, models.StatusConnecting)

	dispatcher := tg.NewUpdateDispatcher()
	client, err := tgx.NewAccountClient(db, acc, dispatcher)
	if err != nil {
		lg.Logf("[ERROR] аккаунт %s: клиент не создан: %v", phone, err)
		_ = db.UpdateAccountStatus(phone, models.StatusError)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return err
		}
		if !status.Authorized {
			return errors.New("сессия не авторизована")
		}

		api := tg.NewClient(client)
		if !reg.Put(phone, &registry.Handle{Phone: phone, API: api, Stop: cancel}) {
			return errDuplicate
		}
		defer reg.Remove(phone)

		_ = db.UpdateAccountStatus(phone, models.StatusOnline)
		lg.Logf("[WORKER] аккаунт %s в сети", phone)

		snap, err := loadSnapshot(db, lg, phone)
		if err != nil {
			return err
		}

		s := newSession(phone, api, snap, lg)
		s.attach(&dispatcher)

		// Обработчики диспетчера работают до отключения клиента.
		<-ctx.Done()
		return ctx.Err()
	})

	_ = db.UpdateAccountStatus(phone, exitStatus(runErr))
	switch {
	case runErr == nil || errors.Is(runErr, context.Canceled):
		lg.Logf("[WORKER] аккаунт %s отключён", phone)
	case errors.Is(runErr, errDuplicate):
		lg.Logf("[WORKER] аккаунт %s уже подключён, второй клиент остановлен", phone)
	default:
		lg.Logf("[ERROR] аккаунт %s: %v", phone, runErr)
	}
}

// exitStatus переводит исход client.Run в конечный статус аккаунта.
// Гонка двух клиентов: первый остаётся в сети, а наш переход в Connecting
// затёр его Online — возвращаем Online обратно.
func exitStatus(runErr error) string {
	switch {
	case runErr == nil || errors.Is(runErr, context.Canceled):
		return models.StatusOffline
	case errors.Is(runErr, errDuplicate):
		return models.StatusOnline
	default:
		return models.StatusError
	}
}

// loadSnapshot читает конфигурацию аккаунта один раз при подключении.
// Дальнейшие правки вступают в силу только после переподключения.
func loadSnapshot(db *storage.DB, lg *logger.Broadcaster, phone string) (rules.Snapshot, error) {
	ruleList, err := db.GetActiveForwardingRules(phone)
	if err != nil {
		return rules.Snapshot{}, err
	}
	auto, err := db.GetAutoReply(phone)
	if err != nil {
		return rules.Snapshot{}, err
	}
	smart, err := db.GetSmartSelling(phone)
	if err != nil {
		return rules.Snapshot{}, err
	}

	snap := rules.BuildSnapshot(ruleList, auto, smart)
	if !snap.HasForwarding() {
		lg.Logf("[WORKER] %s: активных правил пересылки нет", phone)
	} else {
		lg.Logf("[WORKER] %s слушает %d чатов-источников", phone, len(snap.SourceChats()))
	}
	if auto != nil && auto.Message != "" {
		lg.Logf("[WORKER] %s: автоответ включён", phone)
	}
	if smart != nil && smart.Enabled && smart.Message != "" {
		lg.Logf("[WORKER] %s: умные ответы включены", phone)
	}
	return snap, nil
}
