package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type outboxEntry struct {
	event         TransferEvent
	attempts      int
	nextAttemptAt time.Time
	claimed       bool
	failed        bool
	lastError     string
}

// MemoryOutboxStore backs the dispatcher in-process. Entries are
// delivered in enqueue order; Retry re-arms an entry with the supplied
// next attempt time, or marks it failed when the time is zero.
type MemoryOutboxStore struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*outboxEntry
	nowFn   func() time.Time
}

func NewMemoryOutboxStore() *MemoryOutboxStore {
	return &MemoryOutboxStore{
		entries: map[string]*outboxEntry{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryOutboxStore) Enqueue(_ context.Context, event TransferEvent) error {
	if s == nil {
		return fmt.Errorf("core: memory outbox store is not configured")
	}
	id := strings.TrimSpace(event.ID)
	if id == "" {
		return fmt.Errorf("core: outbox event id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("core: outbox event already enqueued: %s", id)
	}
	s.entries[id] = &outboxEntry{event: event}
	s.order = append(s.order, id)
	return nil
}

func (s *MemoryOutboxStore) ClaimBatch(_ context.Context, limit int) ([]TransferEvent, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory outbox store is not configured")
	}
	if limit <= 0 {
		return nil, nil
	}
	now := s.nowFn()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TransferEvent, 0, limit)
	for _, id := range s.order {
		entry := s.entries[id]
		if entry == nil || entry.claimed || entry.failed {
			continue
		}
		if !entry.nextAttemptAt.IsZero() && now.Before(entry.nextAttemptAt) {
			continue
		}
		entry.claimed = true
		event := entry.event
		if event.Metadata == nil {
			event.Metadata = map[string]any{}
		} else {
			event.Metadata = cloneFields(event.Metadata)
		}
		event.Metadata[MetadataKeyOutboxAttempts] = entry.attempts
		out = append(out, event)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryOutboxStore) Ack(_ context.Context, eventID string) error {
	if s == nil {
		return fmt.Errorf("core: memory outbox store is not configured")
	}
	id := strings.TrimSpace(eventID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("core: outbox event not found: %s", id)
	}
	delete(s.entries, id)
	for i, key := range s.order {
		if key == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryOutboxStore) Retry(_ context.Context, eventID string, cause error, nextAttemptAt time.Time) error {
	if s == nil {
		return fmt.Errorf("core: memory outbox store is not configured")
	}
	id := strings.TrimSpace(eventID)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("core: outbox event not found: %s", id)
	}
	entry.claimed = false
	entry.attempts++
	if cause != nil {
		entry.lastError = cause.Error()
	}
	if nextAttemptAt.IsZero() {
		entry.failed = true
		return nil
	}
	entry.nextAttemptAt = nextAttemptAt
	return nil
}

// Pending reports entries still waiting for delivery, failed ones
// excluded. Used by tests and host drain loops.
func (s *MemoryOutboxStore) Pending() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, entry := range s.entries {
		if entry != nil && !entry.failed {
			count++
		}
	}
	return count
}

var _ OutboxStore = (*MemoryOutboxStore)(nil)
