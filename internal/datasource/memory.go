package datasource

import (
	"context"
	"sort"
	"sync"
)

// Memory is a map-backed Source.
type Memory struct {
	mu     sync.RWMutex
	arrays map[string]Array
}

func NewMemory() *Memory {
	return &Memory{arrays: make(map[string]Array)}
}

// Put stores a copy of a under name.
func (m *Memory) Put(name string, a Array) error {
	if err := a.validate(name); err != nil {
		return err
	}
	c := Array{Shape: append([]int(nil), a.Shape...), Data: append([]float64(nil), a.Data...)}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrays[name] = c
	return nil
}

func (m *Memory) Array(_ context.Context, name string) (Array, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.arrays[name]
	if !ok {
		return Array{}, missing(name)
	}
	return a, nil
}

func (m *Memory) Has(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.arrays[name]
	return ok, nil
}

// Names lists the stored array names in sorted order.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.arrays))
	for name := range m.arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
