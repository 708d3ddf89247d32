package models

// AutoReplyConfig — автоответ на входящие личные сообщения.
// Keywords — список через запятую; пустой список означает ответ на всё.
type AutoReplyConfig struct {
	AccountPhone string `json:"account_phone"`
	Message      string `json:"message"`
	Keywords     string `json:"keywords"`
}
