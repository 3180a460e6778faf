package repository

import (
	"context"
	"sync"

	"github.com/okian/matchwinner/internal/domain/model"
)

// MemoryStore keeps the most recent entries in a ring buffer.
type MemoryStore struct {
	mu     sync.RWMutex
	buf    []model.HistoryEntry
	next   int // slot the next entry is written to
	size   int
	closed bool
}

// NewMemoryStore creates an in-memory store bounded by WithCapacity.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	return &MemoryStore{buf: make([]model.HistoryEntry, o.capacity)}
}

// Record appends e, evicting the oldest entry when full.
func (s *MemoryStore) Record(_ context.Context, e model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.buf[s.next] = e
	s.next = (s.next + 1) % len(s.buf)
	if s.size < len(s.buf) {
		s.size++
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *MemoryStore) Recent(_ context.Context, n int) ([]model.HistoryEntry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if n > s.size {
		n = s.size
	}
	out := make([]model.HistoryEntry, n)
	for i := 0; i < n; i++ {
		idx := (s.next - 1 - i + len(s.buf)) % len(s.buf)
		out[i] = s.buf[idx]
	}
	return out, nil
}

// Count returns the number of retained entries.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.size, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
