package adapters

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/muhannadalsrahen/speakright/domain/entities"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
)

// MemoryLogStore is an in-memory implementation of TrainingLogStore. It is
// the fallback store when MongoDB is not configured.
type MemoryLogStore struct {
	mu   sync.RWMutex
	logs map[string]*entities.TrainingLog
}

var _ repositories.TrainingLogStore = (*MemoryLogStore)(nil)

// NewMemoryLogStore creates a new in-memory training log store.
func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{
		logs: make(map[string]*entities.TrainingLog),
	}
}

// Save implements TrainingLogStore.
func (m *MemoryLogStore) Save(_ context.Context, log *entities.TrainingLog) error {
	if log == nil {
		return errors.New("training log cannot be nil")
	}
	if err := log.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *log
	copied.Conversation = append([]entities.Message(nil), log.Conversation...)
	m.logs[log.ID] = &copied
	return nil
}

// GetByID implements TrainingLogStore.
func (m *MemoryLogStore) GetByID(_ context.Context, id string) (*entities.TrainingLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log, ok := m.logs[id]
	if !ok {
		return nil, repositories.ErrLogNotFound
	}
	copied := *log
	copied.Conversation = append([]entities.Message(nil), log.Conversation...)
	return &copied, nil
}

// List implements TrainingLogStore, newest first.
func (m *MemoryLogStore) List(_ context.Context) ([]*entities.TrainingLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*entities.TrainingLog, 0, len(m.logs))
	for _, log := range m.logs {
		copied := *log
		copied.Conversation = append([]entities.Message(nil), log.Conversation...)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}
