package kv

import (
	"context"
	"sync"

	"github.com/yeisme/kitvault/pkg/configs"
)

// memoryStore 单进程内存后端，服务多实例部署时各自独立.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV 内存后端.
func NewMemoryKV(context.Context, *configs.KVConfig) (KVStore, error) {
	return withExpiry(&memoryStore{data: map[string][]byte{}}), nil
}

func (m *memoryStore) load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.data[key]

	return b, ok, nil
}

func (m *memoryStore) store(_ context.Context, key string, b []byte) error {
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()

	return nil
}

func (m *memoryStore) remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

func (m *memoryStore) list(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}

	return keys, nil
}

func (m *memoryStore) Close() error { return nil }

func init() {
	Register(KVTypeMemory, NewMemoryKV)
}
