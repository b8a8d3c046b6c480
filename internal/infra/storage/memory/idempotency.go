package memory

import (
	"context"
	"sync"
	"time"

	"travelstay/internal/app/middleware"
)

// IdempotencyStore keeps command results in memory.
type IdempotencyStore struct {
	mu    sync.RWMutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[rec.Key]; !exists {
		s.items[rec.Key] = rec
	}
	return nil
}

// Inbox remembers consumed event ids per process.
type Inbox struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewInbox() *Inbox {
	return &Inbox{seen: make(map[string]time.Time)}
}

// Seen records eventID and reports whether it had been recorded before.
func (i *Inbox) Seen(_ context.Context, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.seen[eventID]; ok {
		return true, nil
	}
	i.seen[eventID] = time.Now().UTC()
	return false, nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
