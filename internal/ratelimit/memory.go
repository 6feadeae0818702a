package ratelimit

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local fixed-window limiter. Records are created lazily
// and only removed by Sweep.
type Memory struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	records map[string]*record

	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

var (
	_ Limiter = (*Memory)(nil)
	_ Sweeper = (*Memory)(nil)
)

func NewMemory(limit int, window time.Duration) *Memory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{
		limit:   limit,
		window:  window,
		records: make(map[string]*record),
		Now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	return m.allow(key), nil
}

func (m *Memory) allow(key string) bool {
	now := m.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || now.After(rec.resetAt) {
		m.records[key] = &record{count: 1, resetAt: now.Add(m.window)}
		return true
	}

	if rec.count >= m.limit {
		return false
	}
	rec.count++
	return true
}

// Sweep drops records whose window has elapsed and returns how many went.
// A dropped key starts over exactly as an elapsed one would.
func (m *Memory) Sweep() int {
	now := m.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, rec := range m.records {
		if now.After(rec.resetAt) {
			delete(m.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Count returns the requests seen for key in its current window.
func (m *Memory) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[key]; ok {
		return rec.count
	}
	return 0
}
