package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrSlotIndexOutOfRange = errors.New("core: slot index out of range")
	ErrUnauthorized        = errors.New("core: caller is not authorized for slot")
	ErrNullPrincipal       = errors.New("core: principal is null")
	ErrNoPendingTransfer   = errors.New("core: no pending transfer for slot")
	ErrSlotVersionConflict = errors.New("core: slot version conflict")
	ErrRegistryNotSeeded   = errors.New("core: slot registry is not seeded")
)

// Principal is an authenticated caller identity. It is opaque to the
// registry beyond equality comparison; the empty value is the null
// sentinel and is never a valid owner.
type Principal string

func NormalizePrincipal(value string) Principal {
	return Principal(strings.TrimSpace(value))
}

func (p Principal) IsNull() bool {
	return strings.TrimSpace(string(p)) == ""
}

func (p Principal) Equals(other Principal) bool {
	return strings.TrimSpace(string(p)) == strings.TrimSpace(string(other))
}

func (p Principal) String() string {
	return strings.TrimSpace(string(p))
}

type SlotState string

const (
	SlotStateStable          SlotState = "stable"
	SlotStateTransferPending SlotState = "transfer_pending"
)

// OwnerSlot is one independently transferable owner position. Current
// changes only through a successful claim by the exact pending
// principal; propose and cancel touch Pending alone.
type OwnerSlot struct {
	Index     int
	Current   Principal
	Pending   Principal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s OwnerSlot) State() SlotState {
	if s.Pending.IsNull() {
		return SlotStateStable
	}
	return SlotStateTransferPending
}

func (s OwnerSlot) HasPending() bool {
	return !s.Pending.IsNull()
}

// Propose nominates newOwner for the slot. A prior pending nomination
// is overwritten, not queued. Guards run before any mutation.
func (s *OwnerSlot) Propose(caller Principal, newOwner Principal, now time.Time) error {
	if s == nil {
		return ErrSlotIndexOutOfRange
	}
	if !caller.Equals(s.Current) {
		return fmt.Errorf("%w: propose on slot %d", ErrUnauthorized, s.Index)
	}
	if newOwner.IsNull() {
		return fmt.Errorf("%w: new owner for slot %d", ErrNullPrincipal, s.Index)
	}
	s.Pending = NormalizePrincipal(string(newOwner))
	s.UpdatedAt = now
	return nil
}

// CancelTransfer clears the pending nomination. Cancelling a slot with
// no pending transfer is a legal no-op; the returned flag reports
// whether anything was actually cleared.
func (s *OwnerSlot) CancelTransfer(caller Principal, now time.Time) (bool, error) {
	if s == nil {
		return false, ErrSlotIndexOutOfRange
	}
	if !caller.Equals(s.Current) {
		return false, fmt.Errorf("%w: cancel on slot %d", ErrUnauthorized, s.Index)
	}
	if s.Pending.IsNull() {
		return false, nil
	}
	s.Pending = ""
	s.UpdatedAt = now
	return true, nil
}

// Claim completes a transfer. Only the exact pending principal may
// claim; the swap of Current and the clearing of Pending happen as a
// single mutation so no partial update is observable.
func (s *OwnerSlot) Claim(caller Principal, now time.Time) error {
	if s == nil {
		return ErrSlotIndexOutOfRange
	}
	if s.Pending.IsNull() {
		return fmt.Errorf("%w: slot %d", ErrNoPendingTransfer, s.Index)
	}
	if !caller.Equals(s.Pending) {
		return fmt.Errorf("%w: claim on slot %d", ErrUnauthorized, s.Index)
	}
	s.Current = s.Pending
	s.Pending = ""
	s.UpdatedAt = now
	return nil
}

const (
	EventTransferProposed  = "ownership.transfer.proposed"
	EventTransferCancelled = "ownership.transfer.cancelled"
	EventOwnershipClaimed  = "ownership.claimed"
)

// TransferEvent records one successful slot transition for audit and
// observer projections.
type TransferEvent struct {
	ID         string
	Name       string
	SlotIndex  int
	Actor      Principal
	From       Principal
	To         Principal
	Source     string
	OccurredAt time.Time
	Metadata   map[string]any
}

func NewTransferProposedEvent(id string, slot OwnerSlot, actor Principal, now time.Time) TransferEvent {
	return TransferEvent{
		ID:         id,
		Name:       EventTransferProposed,
		SlotIndex:  slot.Index,
		Actor:      actor,
		From:       slot.Current,
		To:         slot.Pending,
		OccurredAt: now,
	}
}

func NewTransferCancelledEvent(id string, slot OwnerSlot, actor Principal, cleared Principal, now time.Time) TransferEvent {
	return TransferEvent{
		ID:         id,
		Name:       EventTransferCancelled,
		SlotIndex:  slot.Index,
		Actor:      actor,
		From:       slot.Current,
		To:         cleared,
		OccurredAt: now,
	}
}

func NewOwnershipClaimedEvent(id string, slot OwnerSlot, previous Principal, now time.Time) TransferEvent {
	return TransferEvent{
		ID:         id,
		Name:       EventOwnershipClaimed,
		SlotIndex:  slot.Index,
		Actor:      slot.Current,
		From:       previous,
		To:         slot.Current,
		OccurredAt: now,
	}
}
