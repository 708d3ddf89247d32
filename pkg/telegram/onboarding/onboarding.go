// Package onboarding реализует интерактивное добавление нового аккаунта:
// пошаговая авторизация по дуплексному каналу и передача готовой сессии
// супервизору.
package onboarding

import (
	"context"
	"errors"
	"fmt"

	"tgrelay/models"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/storage"
	tgx "tgrelay/pkg/telegram"
	"tgrelay/pkg/telegram/registry"
	"tgrelay/pkg/telegram/supervisor"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// Channel — дуплексный канал общения с пользователем. Prompt отправляет
// подсказку и ждёт ответ; Success и Fail — терминальные сообщения.
type Channel interface {
	Prompt(ctx context.Context, text string) (string, error)
	Success(ctx context.Context, text string) error
	Fail(ctx context.Context, text string) error
}

// Config — параметры онбординга: приложение Telegram и владелец аккаунта.
type Config struct {
	ApiID   int
	ApiHash string
	Owner   string
}

// authClient — минимальный срез авторизации Telegram. Выделен, чтобы
// прогонять машину состояний в тестах без сети.
type authClient interface {
	SendCode(ctx context.Context, phone string) (string, error)
	SignIn(ctx context.Context, phone, code, codeHash string) error
	Password(ctx context.Context, password string) error
	Self(ctx context.Context) (string, error)
}

// runFlow ведёт пользователя по шагам: телефон -> код -> (пароль) ->
// подтверждённый номер. Возвращает номер в том виде, в котором его знает
// Telegram — он может отличаться от введённого форматированием.
func runFlow(ctx context.Context, ch Channel, ac authClient) (string, error) {
	phone, err := ch.Prompt(ctx, "Please enter your phone number (e.g., +15551234567):")
	if err != nil {
		return "", err
	}

	codeHash, err := ac.SendCode(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("не удалось запросить код: %w", err)
	}

	code, err := ch.Prompt(ctx, "Enter the code you received in Telegram:")
	if err != nil {
		return "", err
	}

	if err := ac.SignIn(ctx, phone, code, codeHash); err != nil {
		if !errors.Is(err, auth.ErrPasswordAuthNeeded) {
			return "", fmt.Errorf("вход не выполнен: %w", err)
		}
		password, err := ch.Prompt(ctx, "Two-factor authentication is enabled. Please enter your password:")
		if err != nil {
			return "", err
		}
		if err := ac.Password(ctx, password); err != nil {
			return "", fmt.Errorf("пароль не принят: %w", err)
		}
	}

	return ac.Self(ctx)
}

// gotdAuth адаптирует клиента gotd к authClient.
type gotdAuth struct {
	client interface {
		Auth() *auth.Client
		Self(ctx context.Context) (*tg.User, error)
	}
}

func (g gotdAuth) SendCode(ctx context.Context, phone string) (string, error) {
	sentCode, err := g.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", err
	}
	sent, ok := sentCode.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("неожиданный тип ответа на запрос кода: %T", sentCode)
	}
	return sent.PhoneCodeHash, nil
}

func (g gotdAuth) SignIn(ctx context.Context, phone, code, codeHash string) error {
	_, err := g.client.Auth().SignIn(ctx, phone, code, codeHash)
	return err
}

func (g gotdAuth) Password(ctx context.Context, password string) error {
	_, err := g.client.Auth().Password(ctx, password)
	return err
}

func (g gotdAuth) Self(ctx context.Context) (string, error) {
	me, err := g.client.Self(ctx)
	if err != nil {
		return "", err
	}
	return "+" + me.Phone, nil
}

// Start выполняет онбординг целиком: временный клиент с сессией в памяти,
// машина состояний, сохранение аккаунта и запуск супервизора. Клиент
// закрывается на любом пути выхода — временное подключение не утекает.
func Start(ctx context.Context, db *storage.DB, reg *registry.Registry, lg *logger.Broadcaster, cfg Config, ch Channel) {
	client, mem := tgx.NewEphemeralClient(cfg.ApiID, cfg.ApiHash)

	var resolvedPhone string
	runErr := client.Run(ctx, func(ctx context.Context) error {
		phone, err := runFlow(ctx, ch, gotdAuth{client: client})
		if err != nil {
			return err
		}
		resolvedPhone = phone

		data, err := mem.LoadSession(ctx)
		if err != nil {
			return fmt.Errorf("не удалось выгрузить сессию: %w", err)
		}

		account, err := db.UpsertAccount(models.Account{
			Phone:       phone,
			ApiID:       cfg.ApiID,
			ApiHash:     cfg.ApiHash,
			SessionData: string(data),
			Status:      models.StatusOnline,
			Owner:       cfg.Owner,
		})
		if err != nil {
			return fmt.Errorf("не удалось сохранить аккаунт: %w", err)
		}

		lg.Logf("[AUTH] вход выполнен для %s, сессия сохранена", phone)
		go supervisor.Run(db, reg, lg, *account)

		return ch.Success(ctx, fmt.Sprintf("Successfully logged in and saved account %s!", phone))
	})

	if runErr != nil {
		who := resolvedPhone
		if who == "" {
			who = "нового пользователя"
		}
		lg.Logf("[AUTH] вход не выполнен для %s: %v", who, runErr)
		_ = ch.Fail(ctx, "An error occurred: "+runErr.Error())
	}
}
