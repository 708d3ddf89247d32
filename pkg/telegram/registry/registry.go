package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/gotd/td/tg"
)

// Handle — живое подключение одного аккаунта. API валиден, пока
// супервизор аккаунта не снял запись из реестра.
type Handle struct {
	Phone string
	API   *tg.Client
	Stop  context.CancelFunc
}

// Registry — единственный источник истины о том, какие аккаунты сейчас
// подключены. Все обращения из супервизоров и фоновых задач идут через
// его методы; прямого доступа к карте нет.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Handle
}

func New() *Registry {
	return &Registry{sessions: make(map[string]*Handle)}
}

// Put регистрирует подключение. Возвращает false, если аккаунт уже
// подключён: второй клиент с тем же номером не допускается.
func (r *Registry) Put(phone string, h *Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[phone]; ok {
		return false
	}
	r.sessions[phone] = h
	return true
}

// Get возвращает подключение аккаунта, если оно есть.
func (r *Registry) Get(phone string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.sessions[phone]
	return h, ok
}

// Remove снимает подключение с учёта. Отсутствие записи не ошибка.
func (r *Registry) Remove(phone string) {
	r.mu.Lock()
	delete(r.sessions, phone)
	r.mu.Unlock()
}

// Phones возвращает отсортированный список подключённых номеров.
func (r *Registry) Phones() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	phones := make([]string, 0, len(r.sessions))
	for phone := range r.sessions {
		phones = append(phones, phone)
	}
	sort.Strings(phones)
	return phones
}

// Any возвращает произвольное живое подключение — для операций,
// которым не важно, от чьего имени выполняется запрос.
func (r *Registry) Any() (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.sessions {
		return h, true
	}
	return nil, false
}
