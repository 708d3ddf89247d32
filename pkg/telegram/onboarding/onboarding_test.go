package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/gotd/td/telegram/auth"
)

// scriptChannel отдаёт заранее заготовленные ответы пользователя и
// записывает показанные подсказки.
type scriptChannel struct {
	answers []string
	prompts []string
	success string
	failure string
}

func (c *scriptChannel) Prompt(ctx context.Context, text string) (string, error) {
	c.prompts = append(c.prompts, text)
	if len(c.answers) == 0 {
		return "", errors.New("ответы закончились")
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer, nil
}

func (c *scriptChannel) Success(ctx context.Context, text string) error {
	c.success = text
	return nil
}

func (c *scriptChannel) Fail(ctx context.Context, text string) error {
	c.failure = text
	return nil
}

// fakeAuth воспроизводит поведение авторизации Telegram без сети.
type fakeAuth struct {
	needPassword bool
	signInErr    error
	passwordErr  error
	resolved     string

	gotPhone    string
	gotCode     string
	gotHash     string
	gotPassword string
}

func (f *fakeAuth) SendCode(ctx context.Context, phone string) (string, error) {
	f.gotPhone = phone
	return "hash-123", nil
}

func (f *fakeAuth) SignIn(ctx context.Context, phone, code, codeHash string) error {
	f.gotCode = code
	f.gotHash = codeHash
	if f.needPassword {
		return auth.ErrPasswordAuthNeeded
	}
	return f.signInErr
}

func (f *fakeAuth) Password(ctx context.Context, password string) error {
	f.gotPassword = password
	return f.passwordErr
}

func (f *fakeAuth) Self(ctx context.Context) (string, error) {
	return f.resolved, nil
}

// TestFlowWithoutPassword: телефон -> код -> успех, пароль не запрашивается.
func TestFlowWithoutPassword(t *testing.T) {
	ch := &scriptChannel{answers: []string{"+7 900 123-45-67", "12345"}}
	ac := &fakeAuth{resolved: "+79001234567"}

	phone, err := runFlow(context.Background(), ch, ac)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	// Номер берётся из ответа Telegram, а не из пользовательского ввода.
	if phone != "+79001234567" {
		t.Fatalf("ожидался подтверждённый номер, получено %q", phone)
	}
	if len(ch.prompts) != 2 {
		t.Fatalf("ожидалось 2 подсказки, получено %d", len(ch.prompts))
	}
	if ac.gotCode != "12345" || ac.gotHash != "hash-123" {
		t.Fatalf("код или хеш переданы неверно: %q %q", ac.gotCode, ac.gotHash)
	}
	if ac.gotPassword != "" {
		t.Fatalf("пароль не должен был запрашиваться")
	}
}

// TestFlowWithPassword: требование второго фактора переводит машину в
// шаг пароля вместо ошибки.
func TestFlowWithPassword(t *testing.T) {
	ch := &scriptChannel{answers: []string{"+79001234567", "12345", "секрет"}}
	ac := &fakeAuth{needPassword: true, resolved: "+79001234567"}

	phone, err := runFlow(context.Background(), ch, ac)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if phone != "+79001234567" {
		t.Fatalf("неожиданный номер: %q", phone)
	}
	if len(ch.prompts) != 3 {
		t.Fatalf("ожидалось 3 подсказки, получено %d", len(ch.prompts))
	}
	if ac.gotPassword != "секрет" {
		t.Fatalf("пароль не дошёл до авторизации: %q", ac.gotPassword)
	}
}

// TestFlowSignInError: ошибка входа прерывает машину, пароль не запрашивается.
func TestFlowSignInError(t *testing.T) {
	ch := &scriptChannel{answers: []string{"+79001234567", "00000"}}
	ac := &fakeAuth{signInErr: errors.New("PHONE_CODE_INVALID")}

	if _, err := runFlow(context.Background(), ch, ac); err == nil {
		t.Fatalf("ожидалась ошибка входа")
	}
	if len(ch.prompts) != 2 {
		t.Fatalf("после ошибки входа подсказок быть не должно, получено %d", len(ch.prompts))
	}
}

// TestFlowWrongPassword: неверный пароль завершает поток ошибкой.
func TestFlowWrongPassword(t *testing.T) {
	ch := &scriptChannel{answers: []string{"+79001234567", "12345", "не тот"}}
	ac := &fakeAuth{needPassword: true, passwordErr: errors.New("PASSWORD_HASH_INVALID")}

	if _, err := runFlow(context.Background(), ch, ac); err == nil {
		t.Fatalf("ожидалась ошибка пароля")
	}
}
