package models

import "time"

// Статусы правила пересылки.
const (
	RuleStatusActive   = "active"
	RuleStatusInactive = "inactive"
)

// ForwardingRule — правило пересылки сообщений из одного чата в другой.
// Правила читаются один раз при подключении аккаунта; изменения вступают
// в силу только после переподключения.
type ForwardingRule struct {
	ID              int       `json:"id"`
	AccountPhone    string    `json:"account_phone"`
	SourceChat      string    `json:"source_chat"`
	DestinationChat string    `json:"destination_chat"`
	Filters         string    `json:"filters"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
