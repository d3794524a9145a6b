package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. Several guards sharing one Memory behave
// like tabs sharing the origin's storage.
type Memory struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[chan Change]struct{}
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string]string),
		watchers: make(map[chan Change]struct{}),
	}
}

// Get implements Backend.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Backend.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.broadcastLocked(Change{Key: key, Value: value})
	m.mu.Unlock()
	return nil
}

// Remove implements Backend.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	if _, ok := m.values[key]; ok {
		delete(m.values, key)
		m.broadcastLocked(Change{Key: key, Removed: true})
	}
	m.mu.Unlock()
	return nil
}

// Keys returns the stored keys in no particular order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	return out
}

// Watch implements Watcher. Slow receivers miss changes rather than block
// writers.
func (m *Memory) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, watchBuffer)

	m.mu.Lock()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		close(ch)
		m.mu.Unlock()
	}()

	return ch, nil
}

func (m *Memory) broadcastLocked(c Change) {
	for ch := range m.watchers {
		select {
		case ch <- c:
		default:
		}
	}
}
