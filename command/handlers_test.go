package command

import (
	"context"
	"fmt"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ownership/core"
)

type stubMutatingService struct {
	proposeFn func(ctx context.Context, in core.ProposeTransferInput) (core.TransferReceipt, error)
	cancelFn  func(ctx context.Context, in core.CancelTransferInput) (core.TransferReceipt, error)
	claimFn   func(ctx context.Context, in core.ClaimOwnershipInput) (core.TransferReceipt, error)
}

func (s stubMutatingService) Propose(ctx context.Context, in core.ProposeTransferInput) (core.TransferReceipt, error) {
	if s.proposeFn == nil {
		return core.TransferReceipt{}, nil
	}
	return s.proposeFn(ctx, in)
}

func (s stubMutatingService) CancelTransfer(ctx context.Context, in core.CancelTransferInput) (core.TransferReceipt, error) {
	if s.cancelFn == nil {
		return core.TransferReceipt{}, nil
	}
	return s.cancelFn(ctx, in)
}

func (s stubMutatingService) ClaimOwnership(ctx context.Context, in core.ClaimOwnershipInput) (core.TransferReceipt, error) {
	if s.claimFn == nil {
		return core.TransferReceipt{}, nil
	}
	return s.claimFn(ctx, in)
}

func TestProposeTransferCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.TransferReceipt{
		Slot:  core.OwnerSlot{Index: 0, Current: "alice", Pending: "bob"},
		Event: &core.TransferEvent{ID: "evt-1", Name: core.EventTransferProposed},
	}
	called := false

	svc := stubMutatingService{
		proposeFn: func(_ context.Context, in core.ProposeTransferInput) (core.TransferReceipt, error) {
			called = true
			if in.Caller != "alice" || in.NewOwner != "bob" {
				t.Fatalf("unexpected propose input: %#v", in)
			}
			return expected, nil
		},
	}

	cmd := NewProposeTransferCommand(svc)
	collector := gocmd.NewResult[core.TransferReceipt]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, ProposeTransferMessage{Input: core.ProposeTransferInput{
		Caller:   "alice",
		NewOwner: "bob",
	}})
	if err != nil {
		t.Fatalf("execute propose: %v", err)
	}
	if !called {
		t.Fatalf("expected propose invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.Slot.Pending != "bob" || result.Event == nil {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestMutationCommands_DelegateToService(t *testing.T) {
	t.Run("cancel transfer", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			cancelFn: func(_ context.Context, in core.CancelTransferInput) (core.TransferReceipt, error) {
				called = true
				if in.Caller != "alice" || in.SlotIndex != 2 || in.Reason != "manual" {
					t.Fatalf("unexpected cancel input: %#v", in)
				}
				return core.TransferReceipt{}, nil
			},
		}
		cmd := NewCancelTransferCommand(svc)
		msg := CancelTransferMessage{Input: core.CancelTransferInput{Caller: "alice", SlotIndex: 2, Reason: "manual"}}
		if err := cmd.Execute(context.Background(), msg); err != nil {
			t.Fatalf("execute cancel: %v", err)
		}
		if !called {
			t.Fatalf("expected cancel invocation")
		}
	})

	t.Run("claim ownership", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			claimFn: func(_ context.Context, in core.ClaimOwnershipInput) (core.TransferReceipt, error) {
				called = true
				if in.Caller != "bob" || in.SlotIndex != 0 {
					t.Fatalf("unexpected claim input: %#v", in)
				}
				return core.TransferReceipt{}, nil
			},
		}
		cmd := NewClaimOwnershipCommand(svc)
		msg := ClaimOwnershipMessage{Input: core.ClaimOwnershipInput{Caller: "bob", SlotIndex: 0}}
		if err := cmd.Execute(context.Background(), msg); err != nil {
			t.Fatalf("execute claim: %v", err)
		}
		if !called {
			t.Fatalf("expected claim invocation")
		}
	})
}

func TestCommands_ServiceErrorsPropagate(t *testing.T) {
	wantErr := fmt.Errorf("boom")
	svc := stubMutatingService{
		claimFn: func(context.Context, core.ClaimOwnershipInput) (core.TransferReceipt, error) {
			return core.TransferReceipt{}, wantErr
		},
	}
	cmd := NewClaimOwnershipCommand(svc)
	if err := cmd.Execute(context.Background(), ClaimOwnershipMessage{}); err != wantErr {
		t.Fatalf("expected service error to propagate, got %v", err)
	}
}

func TestCommands_RequireService(t *testing.T) {
	var cmd *ProposeTransferCommand
	if err := cmd.Execute(context.Background(), ProposeTransferMessage{}); err == nil {
		t.Fatalf("expected dependency error for nil command")
	}
	if err := NewClaimOwnershipCommand(nil).Execute(context.Background(), ClaimOwnershipMessage{}); err == nil {
		t.Fatalf("expected dependency error for nil service")
	}
}

func TestMessageValidation(t *testing.T) {
	valid := ProposeTransferMessage{Input: core.ProposeTransferInput{Caller: "alice", SlotIndex: 0, NewOwner: "bob"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid propose rejected: %v", err)
	}
	if err := (ProposeTransferMessage{Input: core.ProposeTransferInput{SlotIndex: 0, NewOwner: "bob"}}).Validate(); err == nil {
		t.Fatalf("expected missing caller to fail validation")
	}
	if err := (ProposeTransferMessage{Input: core.ProposeTransferInput{Caller: "alice", SlotIndex: -1, NewOwner: "bob"}}).Validate(); err == nil {
		t.Fatalf("expected negative slot index to fail validation")
	}
	if err := (ClaimOwnershipMessage{Input: core.ClaimOwnershipInput{SlotIndex: 0}}).Validate(); err == nil {
		t.Fatalf("expected missing claimant to fail validation")
	}
	if err := (CancelTransferMessage{Input: core.CancelTransferInput{Caller: "alice"}}).Validate(); err != nil {
		t.Fatalf("valid cancel rejected: %v", err)
	}
}
