package storage

import (
	"database/sql"
	"log"

	"tgrelay/models"
)

// CreateForwardingRule сохраняет новое правило. Статус по умолчанию — active.
func (db *DB) CreateForwardingRule(rule models.ForwardingRule) (*models.ForwardingRule, error) {
	if rule.Status == "" {
		rule.Status = models.RuleStatusActive
	}
	query := `
		INSERT INTO forwarding_rules (account_phone, source_chat, destination_chat, filters, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := db.Conn.QueryRow(
		query,
		rule.AccountPhone,
		rule.SourceChat,
		rule.DestinationChat,
		rule.Filters,
		rule.Status,
	).Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		log.Printf("[DB ERROR] не удалось создать правило пересылки: %v", err)
		return nil, err
	}
	return &rule, nil
}

// GetForwardingRules возвращает все правила для выдачи в API.
func (db *DB) GetForwardingRules() ([]models.ForwardingRule, error) {
	rows, err := db.Conn.Query(`
		SELECT id, account_phone, source_chat, destination_chat, filters, status, created_at
		FROM forwarding_rules
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// GetActiveForwardingRules возвращает активные правила одного аккаунта.
// Читается один раз при подключении; снимок живёт до переподключения.
func (db *DB) GetActiveForwardingRules(phone string) ([]models.ForwardingRule, error) {
	rows, err := db.Conn.Query(`
		SELECT id, account_phone, source_chat, destination_chat, filters, status, created_at
		FROM forwarding_rules
		WHERE account_phone = $1 AND LOWER(status) = $2
		ORDER BY id
	`, phone, models.RuleStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func collectRules(rows *sql.Rows) ([]models.ForwardingRule, error) {
	var rules []models.ForwardingRule
	for rows.Next() {
		var r models.ForwardingRule
		var filters sql.NullString
		if err := rows.Scan(&r.ID, &r.AccountPhone, &r.SourceChat, &r.DestinationChat, &filters, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Filters = filters.String
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// DeleteForwardingRule удаляет правило по идентификатору.
func (db *DB) DeleteForwardingRule(id int) error {
	res, err := db.Conn.Exec(`DELETE FROM forwarding_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
