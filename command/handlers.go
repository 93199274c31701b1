package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ownership/core"
)

// MutatingService is the slice of the registry the command layer
// drives.
type MutatingService interface {
	Propose(ctx context.Context, in core.ProposeTransferInput) (core.TransferReceipt, error)
	CancelTransfer(ctx context.Context, in core.CancelTransferInput) (core.TransferReceipt, error)
	ClaimOwnership(ctx context.Context, in core.ClaimOwnershipInput) (core.TransferReceipt, error)
}

type ProposeTransferCommand struct {
	service MutatingService
}

func NewProposeTransferCommand(service MutatingService) *ProposeTransferCommand {
	return &ProposeTransferCommand{service: service}
}

func (c *ProposeTransferCommand) Execute(ctx context.Context, msg ProposeTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: propose transfer service is required")
	}
	out, err := c.service.Propose(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CancelTransferCommand struct {
	service MutatingService
}

func NewCancelTransferCommand(service MutatingService) *CancelTransferCommand {
	return &CancelTransferCommand{service: service}
}

func (c *CancelTransferCommand) Execute(ctx context.Context, msg CancelTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: cancel transfer service is required")
	}
	out, err := c.service.CancelTransfer(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ClaimOwnershipCommand struct {
	service MutatingService
}

func NewClaimOwnershipCommand(service MutatingService) *ClaimOwnershipCommand {
	return &ClaimOwnershipCommand{service: service}
}

func (c *ClaimOwnershipCommand) Execute(ctx context.Context, msg ClaimOwnershipMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: claim ownership service is required")
	}
	out, err := c.service.ClaimOwnership(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
