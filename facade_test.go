package ownership

import (
	"context"
	"testing"

	ownershipcommand "github.com/goliatone/go-ownership/command"
	"github.com/goliatone/go-ownership/core"
	ownershipquery "github.com/goliatone/go-ownership/query"
)

func newFacadeService(t *testing.T, owners ...core.Principal) *core.Service {
	t.Helper()
	service, err := core.NewService(core.DefaultConfig(),
		core.WithInitialOwners(owners...),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestNewFacadeRequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected nil service rejection")
	}
}

func TestFacadeWiresCommandAndQuerySurface(t *testing.T) {
	ctx := context.Background()
	service := newFacadeService(t, "alice", "bob")

	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.ProposeTransfer == nil || commands.CancelTransfer == nil || commands.ClaimOwnership == nil {
		t.Fatalf("expected all commands wired, got %+v", commands)
	}
	queries := facade.Queries()
	if queries.GetOwner == nil || queries.GetPendingOwner == nil || queries.CheckOwner == nil ||
		queries.ListSlots == nil || queries.ListTransferEvents == nil {
		t.Fatalf("expected all queries wired, got %+v", queries)
	}
	if facade.Service() == nil {
		t.Fatalf("expected service accessor")
	}

	// Drive a full transfer through the facade handlers.
	if err := commands.ProposeTransfer.Execute(ctx, ownershipcommand.ProposeTransferMessage{
		Input: core.ProposeTransferInput{Caller: "alice", SlotIndex: 0, NewOwner: "carol"},
	}); err != nil {
		t.Fatalf("propose through facade: %v", err)
	}
	pending, err := queries.GetPendingOwner.Query(ctx, ownershipquery.GetPendingOwnerMessage{SlotIndex: 0})
	if err != nil {
		t.Fatalf("pending query: %v", err)
	}
	if !pending.Exists || pending.Principal != "carol" {
		t.Fatalf("expected pending carol, got %+v", pending)
	}

	if err := commands.ClaimOwnership.Execute(ctx, ownershipcommand.ClaimOwnershipMessage{
		Input: core.ClaimOwnershipInput{Caller: "carol", SlotIndex: 0},
	}); err != nil {
		t.Fatalf("claim through facade: %v", err)
	}
	owner, err := queries.GetOwner.Query(ctx, ownershipquery.GetOwnerMessage{SlotIndex: 0})
	if err != nil || owner != "carol" {
		t.Fatalf("expected carol owns slot 0, got %q err=%v", owner, err)
	}

	slots, err := queries.ListSlots.Query(ctx, ownershipquery.ListSlotsMessage{})
	if err != nil || len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d err=%v", len(slots), err)
	}
	events, err := queries.ListTransferEvents.Query(ctx, ownershipquery.ListTransferEventsMessage{})
	if err != nil || len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d err=%v", len(events), err)
	}
}

func TestFacadeTransferEventReaderOverride(t *testing.T) {
	ctx := context.Background()
	service := newFacadeService(t, "alice")

	projected := core.NewMemoryTransferEventStore()
	if err := projected.Append(ctx, core.TransferEvent{
		ID:        "evt-projected-1",
		Name:      core.EventOwnershipClaimed,
		SlotIndex: 0,
		Actor:     "zara",
	}); err != nil {
		t.Fatalf("append projected event: %v", err)
	}

	facade, err := NewFacade(service, WithTransferEventReader(eventReaderFunc(func(ctx context.Context, filter core.TransferEventFilter) ([]core.TransferEvent, error) {
		return projected.List(ctx, filter)
	})))
	if err != nil {
		t.Fatalf("new facade with reader override: %v", err)
	}

	events, err := facade.Queries().ListTransferEvents.Query(ctx, ownershipquery.ListTransferEventsMessage{})
	if err != nil {
		t.Fatalf("list through override: %v", err)
	}
	if len(events) != 1 || events[0].ID != "evt-projected-1" {
		t.Fatalf("expected override reader events, got %+v", events)
	}
}

type eventReaderFunc func(ctx context.Context, filter core.TransferEventFilter) ([]core.TransferEvent, error)

func (f eventReaderFunc) ListTransferEvents(ctx context.Context, filter core.TransferEventFilter) ([]core.TransferEvent, error) {
	return f(ctx, filter)
}
