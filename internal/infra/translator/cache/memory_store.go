package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMemoryCapacity bounds the in-process cache when no capacity is given.
const DefaultMemoryCapacity = 10000

type entry struct {
	key       string
	value     string
	expiresAt time.Time
}

// MemoryStore keeps translations in process memory. When full, the oldest
// written entry is evicted.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	now      func() time.Time
}

// NewMemoryStore constructs an empty store holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	record := elem.Value.(*entry)
	if s.hasExpired(record.expiresAt) {
		s.removeLocked(elem)
		return "", false, nil
	}
	return record.value, true, nil
}

// Set implements Store. A non-positive ttl never expires.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.entries[key]; ok {
		record := elem.Value.(*entry)
		record.value = value
		record.expiresAt = exp
		s.order.MoveToBack(elem)
		return nil
	}
	s.entries[key] = s.order.PushBack(&entry{key: key, value: value, expiresAt: exp})
	for s.order.Len() > s.capacity {
		s.removeLocked(s.order.Front())
	}
	return nil
}

// Len reports the number of stored entries, expired ones included until touched.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *MemoryStore) removeLocked(elem *list.Element) {
	s.order.Remove(elem)
	delete(s.entries, elem.Value.(*entry).key)
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ Store = (*MemoryStore)(nil)
