package query

import (
	"context"

	"github.com/goliatone/go-ownership/core"
)

// SlotReader is the read-only slice of the registry the query layer
// consumes.
type SlotReader interface {
	OwnerOf(ctx context.Context, index int) (core.Principal, error)
	PendingOf(ctx context.Context, index int) (core.Principal, bool, error)
	IsOwner(ctx context.Context, principal core.Principal) (bool, error)
	Slots(ctx context.Context) ([]core.OwnerSlot, error)
}

type TransferEventReader interface {
	ListTransferEvents(ctx context.Context, filter core.TransferEventFilter) ([]core.TransferEvent, error)
}

// PendingOwner carries both the pending principal and whether a
// transfer is actually in flight, so callers need not interpret the
// null principal.
type PendingOwner struct {
	Principal core.Principal
	Exists    bool
}

type GetOwnerQuery struct {
	reader SlotReader
}

func NewGetOwnerQuery(reader SlotReader) *GetOwnerQuery {
	return &GetOwnerQuery{reader: reader}
}

func (q *GetOwnerQuery) Query(ctx context.Context, msg GetOwnerMessage) (core.Principal, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: slot reader is required")
	}
	return q.reader.OwnerOf(ctx, msg.SlotIndex)
}

type GetPendingOwnerQuery struct {
	reader SlotReader
}

func NewGetPendingOwnerQuery(reader SlotReader) *GetPendingOwnerQuery {
	return &GetPendingOwnerQuery{reader: reader}
}

func (q *GetPendingOwnerQuery) Query(ctx context.Context, msg GetPendingOwnerMessage) (PendingOwner, error) {
	if q == nil || q.reader == nil {
		return PendingOwner{}, queryDependencyError("query: slot reader is required")
	}
	pending, exists, err := q.reader.PendingOf(ctx, msg.SlotIndex)
	if err != nil {
		return PendingOwner{}, err
	}
	return PendingOwner{Principal: pending, Exists: exists}, nil
}

type CheckOwnerQuery struct {
	reader SlotReader
}

func NewCheckOwnerQuery(reader SlotReader) *CheckOwnerQuery {
	return &CheckOwnerQuery{reader: reader}
}

func (q *CheckOwnerQuery) Query(ctx context.Context, msg CheckOwnerMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: slot reader is required")
	}
	return q.reader.IsOwner(ctx, msg.Principal)
}

type ListSlotsQuery struct {
	reader SlotReader
}

func NewListSlotsQuery(reader SlotReader) *ListSlotsQuery {
	return &ListSlotsQuery{reader: reader}
}

func (q *ListSlotsQuery) Query(ctx context.Context, _ ListSlotsMessage) ([]core.OwnerSlot, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: slot reader is required")
	}
	return q.reader.Slots(ctx)
}

type ListTransferEventsQuery struct {
	reader TransferEventReader
}

func NewListTransferEventsQuery(reader TransferEventReader) *ListTransferEventsQuery {
	return &ListTransferEventsQuery{reader: reader}
}

func (q *ListTransferEventsQuery) Query(ctx context.Context, msg ListTransferEventsMessage) ([]core.TransferEvent, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: transfer event reader is required")
	}
	return q.reader.ListTransferEvents(ctx, msg.Filter)
}
