package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	errorvalues "github.com/limbo/lumi/internal/error_values"
)

// MemoryKV keeps entries in process memory. Used by tests and by
// STORAGE_DRIVER=memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (kv *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.data[key]
	if !ok {
		return nil, errorvalues.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (kv *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = slices.Clone(value)
	return nil
}

func (kv *MemoryKV) GetByPrefix(_ context.Context, prefix string) ([]KVEntry, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	result := make([]KVEntry, 0, 8)
	for k, v := range kv.data {
		if strings.HasPrefix(k, prefix) {
			result = append(result, KVEntry{Key: k, Value: slices.Clone(v)})
		}
	}
	slices.SortFunc(result, func(a, b KVEntry) int { return strings.Compare(a.Key, b.Key) })
	return result, nil
}
