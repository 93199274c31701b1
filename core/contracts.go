package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// ProposeTransferInput nominates a new owner for a slot. Caller is the
// authenticated identity the host attributes the call to.
type ProposeTransferInput struct {
	Caller    Principal
	SlotIndex int
	NewOwner  Principal
	Metadata  map[string]any
}

type CancelTransferInput struct {
	Caller    Principal
	SlotIndex int
	Reason    string
	Metadata  map[string]any
}

type ClaimOwnershipInput struct {
	Caller    Principal
	SlotIndex int
	Metadata  map[string]any
}

// TransferReceipt reports the slot after a successful mutation. Event
// is nil when the operation was a legal no-op (cancel on a stable
// slot) and no transition fired.
type TransferReceipt struct {
	Slot  OwnerSlot
	Event *TransferEvent
}

// SlotStore persists the ordered slot sequence. Update must apply the
// whole slot atomically and fail with ErrSlotVersionConflict when the
// stored version no longer matches expectedVersion.
type SlotStore interface {
	Seed(ctx context.Context, owners []Principal) error
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, index int) (OwnerSlot, error)
	List(ctx context.Context) ([]OwnerSlot, error)
	Update(ctx context.Context, slot OwnerSlot, expectedVersion int64) (OwnerSlot, error)
}

type TransferEventFilter struct {
	SlotIndex *int
	Name      string
	Limit     int
}

// TransferEventStore is the append-only audit trail of successful
// transitions.
type TransferEventStore interface {
	Append(ctx context.Context, event TransferEvent) error
	List(ctx context.Context, filter TransferEventFilter) ([]TransferEvent, error)
}

type TransferEventHandler interface {
	Handle(ctx context.Context, event TransferEvent) error
}

// TransferHook observes transitions. Pre-commit hooks may veto an
// operation before state is written; post-commit hooks are
// best-effort.
type TransferHook interface {
	Name() string
	OnEvent(ctx context.Context, event TransferEvent) error
}

type ProjectorRegistry interface {
	Register(name string, handler TransferEventHandler)
	Handlers() []TransferEventHandler
}

// OutboxStore decouples observer delivery from the mutating call.
type OutboxStore interface {
	Enqueue(ctx context.Context, event TransferEvent) error
	ClaimBatch(ctx context.Context, limit int) ([]TransferEvent, error)
	Ack(ctx context.Context, eventID string) error
	Retry(ctx context.Context, eventID string, cause error, nextAttemptAt time.Time) error
}

type DispatchStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}

type OutboxDispatcherRunner interface {
	DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error)
}

// SlotRegistry is the ownership-transfer surface consumed by hosts.
// IsOwner is the sole capability predicate gated business logic should
// use.
type SlotRegistry interface {
	Propose(ctx context.Context, in ProposeTransferInput) (TransferReceipt, error)
	CancelTransfer(ctx context.Context, in CancelTransferInput) (TransferReceipt, error)
	ClaimOwnership(ctx context.Context, in ClaimOwnershipInput) (TransferReceipt, error)
	IsOwner(ctx context.Context, principal Principal) (bool, error)
	OwnerOf(ctx context.Context, index int) (Principal, error)
	PendingOf(ctx context.Context, index int) (Principal, bool, error)
	Slots(ctx context.Context) ([]OwnerSlot, error)
}

type SlotStoreProvider interface {
	SlotStore() SlotStore
	TransferEventStore() TransferEventStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (SlotStoreProvider, error)
}

type IDGenerator func() string
