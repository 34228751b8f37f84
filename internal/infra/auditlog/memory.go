package auditlog

import (
	"context"
	"sync"

	"github.com/yanqian/health-voice/internal/domain/healthquery"
)

const defaultCapacity = 500

// MemoryLog keeps the most recent entries in process memory.
type MemoryLog struct {
	mu       sync.RWMutex
	entries  []healthquery.AuditEntry
	next     int
	full     bool
	capacity int
}

// NewMemoryLog constructs a ring buffer holding at most capacity entries.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryLog{
		entries:  make([]healthquery.AuditEntry, capacity),
		capacity: capacity,
	}
}

// Record implements healthquery.AuditLog.
func (l *MemoryLog) Record(_ context.Context, entry healthquery.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = entry
	l.next = (l.next + 1) % l.capacity
	if l.next == 0 {
		l.full = true
	}
	return nil
}

// Recent returns the newest entries for userID, newest first.
func (l *MemoryLog) Recent(_ context.Context, userID string, limit int) ([]healthquery.AuditEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	size := l.next
	if l.full {
		size = l.capacity
	}
	out := make([]healthquery.AuditEntry, 0, min(limit, size))
	for i := 1; i <= size && len(out) < limit; i++ {
		idx := (l.next - i + l.capacity) % l.capacity
		if l.entries[idx].UserID == userID {
			out = append(out, l.entries[idx])
		}
	}
	return out, nil
}

var _ healthquery.AuditLog = (*MemoryLog)(nil)
