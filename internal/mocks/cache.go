package mocks

import (
	"context"
	"time"
)

// MockCache is a mock implementation of the Cache interface. Without
// overrides it behaves as an in-memory store honoring expirations.
type MockCache struct {
	data       map[string]cacheEntry
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value string, expiration time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
	PingFunc   func() error
	CloseFunc  func() error
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]cacheEntry),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	entry, ok := m.data[key]
	if !ok {
		return "", nil
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		return "", nil
	}
	return entry.value, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	entry := cacheEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}
	m.data[key] = entry
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	delete(m.data, key)
	return nil
}

func (m *MockCache) Ping() error {
	if m.PingFunc != nil {
		return m.PingFunc()
	}
	return nil
}

func (m *MockCache) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Has reports whether a key is present and unexpired.
func (m *MockCache) Has(key string) bool {
	entry, ok := m.data[key]
	if !ok {
		return false
	}
	return entry.expiresAt.IsZero() || entry.expiresAt.After(time.Now())
}
