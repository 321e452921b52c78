package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// memoryKV is a map-backed KV used in tests and as a last-resort fallback;
// all state is lost on restart.
type memoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() KV {
	return &memoryKV{data: make(map[string][]byte)}
}

func (kv *memoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	value, ok := kv.data[key]
	return value, ok, nil
}

func (kv *memoryKV) Set(ctx context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	kv.data[key] = copied
	return nil
}

func (kv *memoryKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	var keys []string
	for key := range kv.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
