package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemorySlotStore is the default in-process SlotStore. A single mutex
// serializes all writes; Update enforces the same optimistic version
// contract the SQL store does so the registry behaves identically on
// either backend.
type MemorySlotStore struct {
	mu    sync.RWMutex
	slots []OwnerSlot
}

func NewMemorySlotStore() *MemorySlotStore {
	return &MemorySlotStore{}
}

func (s *MemorySlotStore) Seed(_ context.Context, owners []Principal) error {
	if s == nil {
		return fmt.Errorf("core: memory slot store is not configured")
	}
	if len(owners) == 0 {
		return fmt.Errorf("core: at least one initial owner is required")
	}
	for idx, owner := range owners {
		if owner.IsNull() {
			return fmt.Errorf("%w: initial owner for slot %d", ErrNullPrincipal, idx)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slots) > 0 {
		return nil
	}
	now := time.Now().UTC()
	s.slots = make([]OwnerSlot, 0, len(owners))
	for idx, owner := range owners {
		s.slots = append(s.slots, OwnerSlot{
			Index:     idx,
			Current:   NormalizePrincipal(string(owner)),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return nil
}

func (s *MemorySlotStore) Count(context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: memory slot store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots), nil
}

func (s *MemorySlotStore) Get(_ context.Context, index int) (OwnerSlot, error) {
	if s == nil {
		return OwnerSlot{}, fmt.Errorf("core: memory slot store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.slots) == 0 {
		return OwnerSlot{}, ErrRegistryNotSeeded
	}
	if index < 0 || index >= len(s.slots) {
		return OwnerSlot{}, fmt.Errorf("%w: %d of %d", ErrSlotIndexOutOfRange, index, len(s.slots))
	}
	return s.slots[index], nil
}

func (s *MemorySlotStore) List(context.Context) ([]OwnerSlot, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory slot store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.slots) == 0 {
		return nil, ErrRegistryNotSeeded
	}
	out := make([]OwnerSlot, len(s.slots))
	copy(out, s.slots)
	return out, nil
}

func (s *MemorySlotStore) Update(_ context.Context, slot OwnerSlot, expectedVersion int64) (OwnerSlot, error) {
	if s == nil {
		return OwnerSlot{}, fmt.Errorf("core: memory slot store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slots) == 0 {
		return OwnerSlot{}, ErrRegistryNotSeeded
	}
	if slot.Index < 0 || slot.Index >= len(s.slots) {
		return OwnerSlot{}, fmt.Errorf("%w: %d of %d", ErrSlotIndexOutOfRange, slot.Index, len(s.slots))
	}
	stored := s.slots[slot.Index]
	if stored.Version != expectedVersion {
		return OwnerSlot{}, fmt.Errorf("%w: slot %d expected version %d got %d",
			ErrSlotVersionConflict, slot.Index, expectedVersion, stored.Version)
	}
	slot.Version = stored.Version + 1
	slot.CreatedAt = stored.CreatedAt
	s.slots[slot.Index] = slot
	return slot, nil
}

var _ SlotStore = (*MemorySlotStore)(nil)

// MemoryTransferEventStore keeps the audit trail in process memory.
type MemoryTransferEventStore struct {
	mu     sync.RWMutex
	events []TransferEvent
}

func NewMemoryTransferEventStore() *MemoryTransferEventStore {
	return &MemoryTransferEventStore{}
}

func (s *MemoryTransferEventStore) Append(_ context.Context, event TransferEvent) error {
	if s == nil {
		return fmt.Errorf("core: memory transfer event store is not configured")
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *MemoryTransferEventStore) List(_ context.Context, filter TransferEventFilter) ([]TransferEvent, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory transfer event store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TransferEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.SlotIndex != nil && event.SlotIndex != *filter.SlotIndex {
			continue
		}
		if filter.Name != "" && event.Name != filter.Name {
			continue
		}
		out = append(out, event)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

var _ TransferEventStore = (*MemoryTransferEventStore)(nil)
