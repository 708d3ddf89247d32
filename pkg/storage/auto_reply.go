package storage

import (
	"database/sql"
	"errors"
	"log"

	"tgrelay/models"
)

// GetAutoReply возвращает настройку автоответа аккаунта.
// Отсутствие записи не является ошибкой: возвращается nil.
func (db *DB) GetAutoReply(phone string) (*models.AutoReplyConfig, error) {
	var cfg models.AutoReplyConfig
	var keywords sql.NullString
	err := db.Conn.QueryRow(`
		SELECT account_phone, message, keywords
		FROM auto_reply_settings
		WHERE account_phone = $1
	`, phone).Scan(&cfg.AccountPhone, &cfg.Message, &keywords)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.Keywords = keywords.String
	return &cfg, nil
}

// SaveAutoReply создаёт или обновляет настройку автоответа аккаунта.
func (db *DB) SaveAutoReply(cfg models.AutoReplyConfig) error {
	_, err := db.Conn.Exec(`
		INSERT INTO auto_reply_settings (account_phone, message, keywords)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_phone) DO UPDATE SET
			message = EXCLUDED.message,
			keywords = EXCLUDED.keywords,
			updated_at = NOW()
	`, cfg.AccountPhone, cfg.Message, cfg.Keywords)
	if err != nil {
		log.Printf("[DB ERROR] не удалось сохранить автоответ для %s: %v", cfg.AccountPhone, err)
	}
	return err
}
