package command

import (
	"github.com/goliatone/go-ownership/core"
)

const (
	TypeProposeTransfer = "ownership.command.transfer.propose"
	TypeCancelTransfer  = "ownership.command.transfer.cancel"
	TypeClaimOwnership  = "ownership.command.ownership.claim"
)

type ProposeTransferMessage struct {
	Input core.ProposeTransferInput
}

func (ProposeTransferMessage) Type() string { return TypeProposeTransfer }

func (m ProposeTransferMessage) Validate() error {
	if m.Input.Caller.IsNull() {
		return commandValidationError("caller", "caller is required")
	}
	if m.Input.SlotIndex < 0 {
		return commandValidationError("slot_index", "slot index must not be negative")
	}
	if m.Input.NewOwner.IsNull() {
		return commandValidationError("new_owner", "new owner is required")
	}
	return nil
}

type CancelTransferMessage struct {
	Input core.CancelTransferInput
}

func (CancelTransferMessage) Type() string { return TypeCancelTransfer }

func (m CancelTransferMessage) Validate() error {
	if m.Input.Caller.IsNull() {
		return commandValidationError("caller", "caller is required")
	}
	if m.Input.SlotIndex < 0 {
		return commandValidationError("slot_index", "slot index must not be negative")
	}
	return nil
}

type ClaimOwnershipMessage struct {
	Input core.ClaimOwnershipInput
}

func (ClaimOwnershipMessage) Type() string { return TypeClaimOwnership }

func (m ClaimOwnershipMessage) Validate() error {
	if m.Input.Caller.IsNull() {
		return commandValidationError("caller", "caller is required")
	}
	if m.Input.SlotIndex < 0 {
		return commandValidationError("slot_index", "slot index must not be negative")
	}
	return nil
}
