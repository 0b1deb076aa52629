package storage

import (
	"context"
	"sync"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/value"
)

// Memory is an in-process Storage backed by a map, for tests and
// single-process simulation where Load/Save never need to outlive the
// runtime process.
type Memory struct {
	mu   sync.RWMutex
	data map[string]value.Value
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]value.Value)}
}

func (m *Memory) Load(_ context.Context, key string, _ value.Ty) (value.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, mooseerr.New(mooseerr.KeyNotFound, "no value stored for key %q", key)
	}
	return v.Clone(), nil
}

func (m *Memory) Save(_ context.Context, key string, v value.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = v.Clone()
	return nil
}
