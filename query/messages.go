package query

import (
	"github.com/goliatone/go-ownership/core"
)

const (
	TypeGetOwner           = "ownership.query.slot.owner"
	TypeGetPendingOwner    = "ownership.query.slot.pending"
	TypeCheckOwner         = "ownership.query.owner.check"
	TypeListSlots          = "ownership.query.slot.list"
	TypeListTransferEvents = "ownership.query.transfer_events.list"
)

type GetOwnerMessage struct {
	SlotIndex int
}

func (GetOwnerMessage) Type() string { return TypeGetOwner }

func (m GetOwnerMessage) Validate() error {
	if m.SlotIndex < 0 {
		return queryValidationError("slot_index", "slot index must not be negative")
	}
	return nil
}

type GetPendingOwnerMessage struct {
	SlotIndex int
}

func (GetPendingOwnerMessage) Type() string { return TypeGetPendingOwner }

func (m GetPendingOwnerMessage) Validate() error {
	if m.SlotIndex < 0 {
		return queryValidationError("slot_index", "slot index must not be negative")
	}
	return nil
}

type CheckOwnerMessage struct {
	Principal core.Principal
}

func (CheckOwnerMessage) Type() string { return TypeCheckOwner }

// Validate accepts a null principal; the capability predicate answers
// false for it instead of erroring.
func (CheckOwnerMessage) Validate() error { return nil }

type ListSlotsMessage struct{}

func (ListSlotsMessage) Type() string { return TypeListSlots }

func (ListSlotsMessage) Validate() error { return nil }

type ListTransferEventsMessage struct {
	Filter core.TransferEventFilter
}

func (ListTransferEventsMessage) Type() string { return TypeListTransferEvents }

func (m ListTransferEventsMessage) Validate() error {
	if m.Filter.SlotIndex != nil && *m.Filter.SlotIndex < 0 {
		return queryValidationError("slot_index", "slot index must not be negative")
	}
	if m.Filter.Limit < 0 {
		return queryValidationError("limit", "limit must not be negative")
	}
	return nil
}
