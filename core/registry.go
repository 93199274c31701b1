package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// slotUpdateAttempts bounds retries on version conflicts raised by
// writers outside this process. In-process callers are already
// serialized per slot.
const slotUpdateAttempts = 3

type slotMutation func(slot *OwnerSlot, eventID string, now time.Time) (TransferEvent, bool, error)

// Propose nominates newOwner for the slot. Only the current owner may
// propose, and a later proposal overwrites an earlier one without
// ceremony.
func (s *Service) Propose(ctx context.Context, in ProposeTransferInput) (receipt TransferReceipt, err error) {
	startedAt := time.Now().UTC()
	caller := NormalizePrincipal(in.Caller.String())
	newOwner := NormalizePrincipal(in.NewOwner.String())
	fields := map[string]any{
		"slot_index": in.SlotIndex,
		"caller":     caller.String(),
		"new_owner":  newOwner.String(),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "propose_transfer", err, fields)
	}()

	receipt, err = s.mutateSlot(ctx, in.SlotIndex, func(slot *OwnerSlot, eventID string, now time.Time) (TransferEvent, bool, error) {
		if mutErr := slot.Propose(caller, newOwner, now); mutErr != nil {
			return TransferEvent{}, false, mutErr
		}
		event := NewTransferProposedEvent(eventID, *slot, caller, now)
		event.Metadata = mergeMetadata(event.Metadata, in.Metadata)
		return event, true, nil
	})
	return receipt, err
}

// CancelTransfer withdraws the pending proposal. Cancelling a stable
// slot succeeds without firing an event.
func (s *Service) CancelTransfer(ctx context.Context, in CancelTransferInput) (receipt TransferReceipt, err error) {
	startedAt := time.Now().UTC()
	caller := NormalizePrincipal(in.Caller.String())
	fields := map[string]any{
		"slot_index": in.SlotIndex,
		"caller":     caller.String(),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "cancel_transfer", err, fields)
	}()

	receipt, err = s.mutateSlot(ctx, in.SlotIndex, func(slot *OwnerSlot, eventID string, now time.Time) (TransferEvent, bool, error) {
		cleared := slot.Pending
		changed, mutErr := slot.CancelTransfer(caller, now)
		if mutErr != nil {
			return TransferEvent{}, false, mutErr
		}
		if !changed {
			return TransferEvent{}, false, nil
		}
		event := NewTransferCancelledEvent(eventID, *slot, caller, cleared, now)
		event.Metadata = mergeMetadata(event.Metadata, in.Metadata)
		if reason := in.Reason; reason != "" {
			if event.Metadata == nil {
				event.Metadata = map[string]any{}
			}
			event.Metadata["reason"] = reason
		}
		return event, true, nil
	})
	return receipt, err
}

// ClaimOwnership completes the transfer. Only the exact pending
// principal may claim; success swaps ownership and clears the pending
// designation so a repeat claim fails.
func (s *Service) ClaimOwnership(ctx context.Context, in ClaimOwnershipInput) (receipt TransferReceipt, err error) {
	startedAt := time.Now().UTC()
	caller := NormalizePrincipal(in.Caller.String())
	fields := map[string]any{
		"slot_index": in.SlotIndex,
		"caller":     caller.String(),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "claim_ownership", err, fields)
	}()

	receipt, err = s.mutateSlot(ctx, in.SlotIndex, func(slot *OwnerSlot, eventID string, now time.Time) (TransferEvent, bool, error) {
		previous := slot.Current
		if mutErr := slot.Claim(caller, now); mutErr != nil {
			return TransferEvent{}, false, mutErr
		}
		event := NewOwnershipClaimedEvent(eventID, *slot, previous, now)
		event.Metadata = mergeMetadata(event.Metadata, in.Metadata)
		return event, true, nil
	})
	return receipt, err
}

// IsOwner reports whether principal currently owns any slot. A null
// principal never owns a slot, even when one was seeded empty.
func (s *Service) IsOwner(ctx context.Context, principal Principal) (bool, error) {
	if s == nil {
		return false, ErrRegistryNotSeeded
	}
	candidate := NormalizePrincipal(principal.String())
	if candidate.IsNull() {
		return false, nil
	}
	slots, err := s.slotStore.List(ctx)
	if err != nil {
		return false, s.mapError(err)
	}
	for _, slot := range slots {
		if slot.Current.Equals(candidate) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) OwnerOf(ctx context.Context, index int) (Principal, error) {
	slot, err := s.slot(ctx, index)
	if err != nil {
		return "", err
	}
	return slot.Current, nil
}

// PendingOf reports the pending owner and whether a transfer is in
// flight for the slot.
func (s *Service) PendingOf(ctx context.Context, index int) (Principal, bool, error) {
	slot, err := s.slot(ctx, index)
	if err != nil {
		return "", false, err
	}
	return slot.Pending, slot.HasPending(), nil
}

func (s *Service) Slots(ctx context.Context) ([]OwnerSlot, error) {
	if s == nil {
		return nil, ErrRegistryNotSeeded
	}
	slots, err := s.slotStore.List(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return slots, nil
}

func (s *Service) ListTransferEvents(ctx context.Context, filter TransferEventFilter) ([]TransferEvent, error) {
	if s == nil || s.eventStore == nil {
		return nil, ErrRegistryNotSeeded
	}
	events, err := s.eventStore.List(ctx, filter)
	if err != nil {
		return nil, s.mapError(err)
	}
	return events, nil
}

func (s *Service) slot(ctx context.Context, index int) (OwnerSlot, error) {
	if s == nil {
		return OwnerSlot{}, ErrRegistryNotSeeded
	}
	if err := s.checkIndex(index); err != nil {
		return OwnerSlot{}, err
	}
	slot, err := s.slotStore.Get(ctx, index)
	if err != nil {
		return OwnerSlot{}, s.mapError(err)
	}
	return slot, nil
}

func (s *Service) checkIndex(index int) error {
	if index < 0 || index >= s.slotCount {
		return s.mapError(fmt.Errorf("%w: slot %d of %d", ErrSlotIndexOutOfRange, index, s.slotCount))
	}
	return nil
}

// mutateSlot runs the read-validate-write cycle for a single slot
// under that slot's lock. Guards run against a fresh read on every
// attempt, so a version conflict from an external writer is replayed
// against current state rather than blindly retried.
func (s *Service) mutateSlot(ctx context.Context, index int, apply slotMutation) (TransferReceipt, error) {
	if s == nil {
		return TransferReceipt{}, ErrRegistryNotSeeded
	}
	if err := s.checkIndex(index); err != nil {
		return TransferReceipt{}, err
	}

	s.slotLocks[index].Lock()
	defer s.slotLocks[index].Unlock()

	// One event identity per operation. Retries replay guards and
	// hooks against fresh state, but the transition they commit is
	// still the same logical event.
	eventID := s.nextEventID()

	var lastErr error
	for attempt := 0; attempt < slotUpdateAttempts; attempt++ {
		slot, err := s.slotStore.Get(ctx, index)
		if err != nil {
			return TransferReceipt{}, s.mapError(err)
		}
		expectedVersion := slot.Version
		now := s.now()

		event, fired, err := apply(&slot, eventID, now)
		if err != nil {
			return TransferReceipt{}, s.mapError(err)
		}
		if !fired {
			return TransferReceipt{Slot: slot}, nil
		}

		if hookErr := s.hooks.ExecutePreCommit(ctx, event); hookErr != nil {
			return TransferReceipt{}, s.mapError(hookErr)
		}

		updated, err := s.slotStore.Update(ctx, slot, expectedVersion)
		if err != nil {
			if errors.Is(err, ErrSlotVersionConflict) {
				lastErr = err
				continue
			}
			return TransferReceipt{}, s.mapError(err)
		}

		s.publishEvent(ctx, event)
		return TransferReceipt{Slot: updated, Event: &event}, nil
	}
	return TransferReceipt{}, s.mapError(lastErr)
}

// publishEvent runs after the slot write committed. Failures here are
// logged, never surfaced, so observers cannot fail a completed
// transition.
func (s *Service) publishEvent(ctx context.Context, event TransferEvent) {
	fields := map[string]any{
		"event_id":   event.ID,
		"event_name": event.Name,
		"slot_index": event.SlotIndex,
	}
	if s.eventStore != nil {
		if err := s.eventStore.Append(ctx, event); err != nil {
			fields["error"] = err.Error()
			s.logError(ctx, "transfer event append failed", fields)
			delete(fields, "error")
		}
	}
	if s.outboxStore != nil {
		if err := s.outboxStore.Enqueue(ctx, event); err != nil {
			fields["error"] = err.Error()
			s.logError(ctx, "transfer event enqueue failed", fields)
			delete(fields, "error")
		}
	}
	if err := s.hooks.ExecutePostCommit(ctx, event); err != nil {
		fields["error"] = err.Error()
		s.logError(ctx, "post commit hooks failed", fields)
	}
}

func (s *Service) nextEventID() string {
	if s == nil || s.idGenerator == nil {
		return ""
	}
	return s.idGenerator()
}

func (s *Service) now() time.Time {
	if s == nil || s.nowFn == nil {
		return time.Now().UTC()
	}
	return s.nowFn()
}

func mergeMetadata(base map[string]any, extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return base
	}
	merged := map[string]any{}
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range extra {
		merged[key] = value
	}
	return merged
}

var _ SlotRegistry = (*Service)(nil)
