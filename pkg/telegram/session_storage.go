package telegram

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"tgrelay/pkg/storage"

	"github.com/gotd/td/session"
)

// DBSessionStorage хранит и загружает сессии gotd из таблицы accounts.
type DBSessionStorage struct {
	DB    *storage.DB
	Phone string
}

// LoadSession загружает текст сессии из БД.
func (s *DBSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	if s == nil || s.DB == nil {
		return nil, session.ErrNotFound
	}
	data, err := s.DB.GetSessionData(s.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		log.Printf("[SESSION] ошибка чтения сессии %s: %v", s.Phone, err)
		return nil, err
	}
	if data == "" {
		return nil, session.ErrNotFound
	}
	return []byte(data), nil
}

// StoreSession сохраняет текст сессии в БД. Вызывается gotd при каждом
// обновлении ключей, поэтому запись должна перезаписывать предыдущую.
func (s *DBSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	if s == nil || s.DB == nil {
		return session.ErrNotFound
	}
	if err := s.DB.UpdateSessionData(s.Phone, string(data)); err != nil {
		log.Printf("[SESSION] ошибка сохранения сессии %s: %v", s.Phone, err)
		return err
	}
	return nil
}
