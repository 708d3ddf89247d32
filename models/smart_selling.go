package models

// SmartSellingConfig — условный автоответ по двум спискам ключевых слов.
// Exclusive подавляет умный ответ, если обычный автоответ уже сработал
// на то же сообщение; по умолчанию оба ответа отправляются независимо.
type SmartSellingConfig struct {
	AccountPhone string `json:"account_phone"`
	Enabled      bool   `json:"enabled"`
	MustContain  string `json:"must_contain"`
	MaybeContain string `json:"maybe_contain"`
	Message      string `json:"message"`
	Exclusive    bool   `json:"exclusive"`
}
