package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type TransferProjectorRegistry struct {
	mu       sync.RWMutex
	handlers map[string]TransferEventHandler
	order    []string
}

func NewTransferProjectorRegistry() *TransferProjectorRegistry {
	return &TransferProjectorRegistry{
		handlers: make(map[string]TransferEventHandler),
		order:    make([]string, 0),
	}
}

func (r *TransferProjectorRegistry) Register(name string, handler TransferEventHandler) {
	if r == nil || handler == nil {
		return
	}
	key := strings.TrimSpace(name)
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[string]TransferEventHandler)
	}
	if _, exists := r.handlers[key]; !exists {
		r.order = append(r.order, key)
		sort.Strings(r.order)
	}
	r.handlers[key] = handler
}

func (r *TransferProjectorRegistry) Handlers() []TransferEventHandler {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TransferEventHandler, 0, len(r.order))
	for _, key := range r.order {
		handler := r.handlers[key]
		if handler != nil {
			out = append(out, handler)
		}
	}
	return out
}

var _ ProjectorRegistry = (*TransferProjectorRegistry)(nil)

// AuditTrailProjector appends dispatched outbox events to a
// TransferEventStore, for hosts that audit through the outbox instead
// of (or in addition to) the synchronous append.
type AuditTrailProjector struct {
	store TransferEventStore
	nowFn func() time.Time
}

func NewAuditTrailProjector(store TransferEventStore) (*AuditTrailProjector, error) {
	if store == nil {
		return nil, fmt.Errorf("core: transfer event store is required")
	}
	return &AuditTrailProjector{
		store: store,
		nowFn: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *AuditTrailProjector) Handle(ctx context.Context, event TransferEvent) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("core: audit trail projector is not configured")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.nowFn()
	}
	return p.store.Append(ctx, event)
}

var _ TransferEventHandler = (*AuditTrailProjector)(nil)
