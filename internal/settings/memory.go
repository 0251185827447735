package settings

import (
	"context"
	"sync"

	"github.com/benvon/study-planner/internal/models"
)

// MemoryStore keeps settings for the lifetime of the process
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (models.TimerSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return models.DefaultTimerSettings(), nil
	}
	return decode(m.data)
}

func (m *MemoryStore) Save(_ context.Context, s models.TimerSettings) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}
