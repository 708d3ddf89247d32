package storage

import (
	"database/sql"
	"log"

	"tgrelay/models"
)

// scanAccount читает аккаунт вместе с привязанным прокси из одной строки запроса.
func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var account models.Account
	var (
		proxyID       sql.NullInt64
		proxyIP       sql.NullString
		proxyPort     sql.NullInt64
		proxyLogin    sql.NullString
		proxyPassword sql.NullString
	)

	err := row.Scan(
		&account.ID,
		&account.Phone,
		&account.ApiID,
		&account.ApiHash,
		&account.SessionData,
		&account.Status,
		&account.Owner,
		&account.ProxyID,
		&account.CreatedAt,
		&account.UpdatedAt,
		&proxyID,
		&proxyIP,
		&proxyPort,
		&proxyLogin,
		&proxyPassword,
	)
	if err != nil {
		return nil, err
	}

	if proxyID.Valid {
		account.Proxy = &models.Proxy{
			ID:       int(proxyID.Int64),
			IP:       proxyIP.String,
			Port:     int(proxyPort.Int64),
			Login:    proxyLogin.String,
			Password: proxyPassword.String,
		}
	}
	return &account, nil
}

const accountSelect = `
		SELECT a.id, a.phone, a.api_id, a.api_hash, a.session_data, a.status, a.owner, a.proxy_id, a.created_at, a.updated_at,
		       p.id, p.ip, p.port, p.login, p.password
		FROM accounts a
		LEFT JOIN proxies p ON a.proxy_id = p.id
	`

// GetAccountByPhone возвращает аккаунт по номеру телефона — основному ключу системы.
func (db *DB) GetAccountByPhone(phone string) (*models.Account, error) {
	return scanAccount(db.Conn.QueryRow(accountSelect+` WHERE a.phone = $1`, phone))
}

// GetAllAccounts возвращает все аккаунты для выдачи в API.
func (db *DB) GetAllAccounts() ([]models.Account, error) {
	rows, err := db.Conn.Query(accountSelect + ` ORDER BY a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

// GetConnectableAccounts возвращает аккаунты, которые нужно поднять при старте.
// Поднимаем только тех, кто штатно был в сети на момент остановки.
func (db *DB) GetConnectableAccounts() ([]models.Account, error) {
	rows, err := db.Conn.Query(accountSelect+` WHERE a.status = $1 ORDER BY a.id`, models.StatusOnline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

// UpsertAccount сохраняет аккаунт по итогам онбординга. Ключ — номер телефона,
// полученный от Telegram, поэтому повторный вход тем же номером обновляет запись.
func (db *DB) UpsertAccount(account models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (phone, api_id, api_hash, session_data, status, owner, proxy_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (phone) DO UPDATE SET
			api_id = EXCLUDED.api_id,
			api_hash = EXCLUDED.api_hash,
			session_data = EXCLUDED.session_data,
			status = EXCLUDED.status,
			owner = EXCLUDED.owner,
			proxy_id = EXCLUDED.proxy_id,
			updated_at = NOW()
		RETURNING id
	`
	err := db.Conn.QueryRow(
		query,
		account.Phone,
		account.ApiID,
		account.ApiHash,
		account.SessionData,
		account.Status,
		account.Owner,
		account.ProxyID,
	).Scan(&account.ID)
	if err != nil {
		log.Printf("[DB ERROR] не удалось сохранить аккаунт %s: %v", account.Phone, err)
		return nil, err
	}
	return &account, nil
}

// UpdateAccountStatus фиксирует переход жизненного цикла в БД.
func (db *DB) UpdateAccountStatus(phone, status string) error {
	_, err := db.Conn.Exec(
		`UPDATE accounts SET status = $1, updated_at = NOW() WHERE phone = $2`,
		status, phone,
	)
	if err != nil {
		log.Printf("[DB ERROR] не удалось обновить статус %s для %s: %v", status, phone, err)
	}
	return err
}

// UpdateSessionData перезаписывает сессию аккаунта. Вызывается хранилищем
// сессий gotd при ротации ключей.
func (db *DB) UpdateSessionData(phone, data string) error {
	_, err := db.Conn.Exec(
		`UPDATE accounts SET session_data = $1, updated_at = NOW() WHERE phone = $2`,
		data, phone,
	)
	return err
}

// GetSessionData читает сохранённую сессию аккаунта.
func (db *DB) GetSessionData(phone string) (string, error) {
	var data string
	err := db.Conn.QueryRow(`SELECT session_data FROM accounts WHERE phone = $1`, phone).Scan(&data)
	return data, err
}

// DeleteAccount удаляет аккаунт. Возвращает sql.ErrNoRows, если записи нет.
func (db *DB) DeleteAccount(phone string) error {
	res, err := db.Conn.Exec(`DELETE FROM accounts WHERE phone = $1`, phone)
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
