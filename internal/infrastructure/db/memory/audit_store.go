package memory

import (
	"context"
	"sync"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

const defaultAuditCapacity = 1000

// AuditStore keeps the most recent audit events in a fixed-size ring buffer.
// Old events are overwritten once capacity is reached.
type AuditStore struct {
	mu     sync.RWMutex
	events []domain.AuditEvent
	next   int
	filled bool
}

func NewAuditStore(capacity int) *AuditStore {
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	return &AuditStore{events: make([]domain.AuditEvent, capacity)}
}

func (s *AuditStore) Store(_ context.Context, event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[s.next] = event
	s.next++
	if s.next == len(s.events) {
		s.next = 0
		s.filled = true
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *AuditStore) Recent(_ context.Context, limit int64) ([]domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.filled {
		size = len(s.events)
	}
	if limit > 0 && int64(size) > limit {
		size = int(limit)
	}

	out := make([]domain.AuditEvent, 0, size)
	idx := s.next
	for i := 0; i < size; i++ {
		idx--
		if idx < 0 {
			idx = len(s.events) - 1
		}
		out = append(out, s.events[idx])
	}
	return out, nil
}
