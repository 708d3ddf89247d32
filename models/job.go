package models

// Исходы обработки одной ссылки или одной цели фоновой задачи.
const (
	JobSuccess = "success"
	JobSkipped = "skipped"
	JobError   = "error"
)

// JoinResult — результат попытки вступления в одну группу или канал.
type JoinResult struct {
	Link   string `json:"link"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}
