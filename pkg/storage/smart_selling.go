package storage

import (
	"database/sql"
	"errors"
	"log"

	"tgrelay/models"
)

// GetSmartSelling возвращает настройку умных ответов аккаунта.
// Отсутствие записи не является ошибкой: возвращается nil.
func (db *DB) GetSmartSelling(phone string) (*models.SmartSellingConfig, error) {
	var cfg models.SmartSellingConfig
	var must, maybe sql.NullString
	err := db.Conn.QueryRow(`
		SELECT account_phone, enabled, must_contain, maybe_contain, message, exclusive
		FROM smart_selling_settings
		WHERE account_phone = $1
	`, phone).Scan(&cfg.AccountPhone, &cfg.Enabled, &must, &maybe, &cfg.Message, &cfg.Exclusive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.MustContain = must.String
	cfg.MaybeContain = maybe.String
	return &cfg, nil
}

// SaveSmartSelling создаёт или обновляет настройку умных ответов аккаунта.
func (db *DB) SaveSmartSelling(cfg models.SmartSellingConfig) error {
	_, err := db.Conn.Exec(`
		INSERT INTO smart_selling_settings (account_phone, enabled, must_contain, maybe_contain, message, exclusive)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_phone) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			must_contain = EXCLUDED.must_contain,
			maybe_contain = EXCLUDED.maybe_contain,
			message = EXCLUDED.message,
			exclusive = EXCLUDED.exclusive,
			updated_at = NOW()
	`, cfg.AccountPhone, cfg.Enabled, cfg.MustContain, cfg.MaybeContain, cfg.Message, cfg.Exclusive)
	if err != nil {
		log.Printf("[DB ERROR] не удалось сохранить умные ответы для %s: %v", cfg.AccountPhone, err)
	}
	return err
}
