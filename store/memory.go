package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

// Memory is an in-memory store for testing, and local development
type Memory struct {
	mtx    sync.Mutex
	values map[string]string
	sets   map[string]map[string]struct{}
}

// NewMemory creates a new in-memory store
func NewMemory() *Memory {
	return &Memory{
		values: map[string]string{},
		sets:   map[string]map[string]struct{}{},
	}
}

// Get returns the value of key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set sets key to value.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key, be it a value or a set.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.values, key)
	delete(m.sets, key)
	return nil
}

// Incr increments the integer at key.
func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	var n int64
	if v, ok := m.values[key]; ok {
		var err error
		if n, err = strconv.ParseInt(v, 10, 64); err != nil {
			return 0, ErrNotInteger
		}
	}
	n++
	m.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// SAdd adds member to the set at key.
func (m *Memory) SAdd(_ context.Context, key, member string) (bool, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = map[string]struct{}{}
		m.sets[key] = set
	}
	if _, ok := set[member]; ok {
		return false, nil
	}
	set[member] = struct{}{}
	return true, nil
}

// SRem removes member from the set at key.
func (m *Memory) SRem(_ context.Context, key, member string) (bool, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return false, nil
	}
	if _, ok := set[member]; !ok {
		return false, nil
	}
	delete(set, member)
	if len(set) == 0 {
		delete(m.sets, key)
	}
	return true, nil
}

// SMembers lists the set at key.
func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	sort.Strings(members)
	return members, nil
}

// MGet returns the values of keys.
func (m *Memory) MGet(_ context.Context, keys ...string) ([]*string, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	result := make([]*string, len(keys))
	for i, key := range keys {
		if v, ok := m.values[key]; ok {
			result[i] = &v
		}
	}
	return result, nil
}

// Close does nothing.
func (m *Memory) Close() error {
	return nil
}
