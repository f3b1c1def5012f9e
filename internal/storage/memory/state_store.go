package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
)

// stateStoreInMemory — простая in-memory реализация StateStore для локальной
// разработки и тестов. Хранит единственную запись состояния целиком.
type stateStoreInMemory struct {
	mu   sync.RWMutex
	data []byte
	set  bool
}

// NewStateStore возвращает in-memory хранилище состояния корзины.
func NewStateStore() domain.StateStore {
	return &stateStoreInMemory{}
}

// Load возвращает копию сохранённого состояния или ok=false, если записи ещё нет.
func (s *stateStoreInMemory) Load(_ context.Context) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return nil, false, nil
	}
	// Копия, чтобы избежать непредсказуемых мутаций извне.
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, true, nil
}

// Save заменяет запись состояния целиком.
func (s *stateStoreInMemory) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make([]byte, len(data))
	copy(s.data, data)
	s.set = true
	return nil
}

var _ domain.StateStore = (*stateStoreInMemory)(nil)
