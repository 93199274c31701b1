package sqlstore

import (
	"time"

	"github.com/goliatone/go-ownership/core"
	"github.com/google/uuid"
)

func newSlotRecord(slot core.OwnerSlot) *slotRecord {
	return &slotRecord{
		ID:           uuid.NewString(),
		SlotIndex:    slot.Index,
		CurrentOwner: slot.Current.String(),
		PendingOwner: slot.Pending.String(),
		Version:      slot.Version,
		CreatedAt:    slot.CreatedAt,
		UpdatedAt:    slot.UpdatedAt,
	}
}

func (r *slotRecord) toDomain() core.OwnerSlot {
	if r == nil {
		return core.OwnerSlot{}
	}
	return core.OwnerSlot{
		Index:     r.SlotIndex,
		Current:   core.NormalizePrincipal(r.CurrentOwner),
		Pending:   core.NormalizePrincipal(r.PendingOwner),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newTransferEventRecord(event core.TransferEvent) *transferEventRecord {
	eventID := event.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return &transferEventRecord{
		ID:         uuid.NewString(),
		EventID:    eventID,
		Name:       event.Name,
		SlotIndex:  event.SlotIndex,
		Actor:      event.Actor.String(),
		FromOwner:  event.From.String(),
		ToOwner:    event.To.String(),
		Source:     event.Source,
		Metadata:   copyAnyMap(event.Metadata),
		OccurredAt: occurredAt,
	}
}

func (r *transferEventRecord) toDomain() core.TransferEvent {
	if r == nil {
		return core.TransferEvent{}
	}
	return core.TransferEvent{
		ID:         r.EventID,
		Name:       r.Name,
		SlotIndex:  r.SlotIndex,
		Actor:      core.NormalizePrincipal(r.Actor),
		From:       core.NormalizePrincipal(r.FromOwner),
		To:         core.NormalizePrincipal(r.ToOwner),
		Source:     r.Source,
		Metadata:   copyAnyMap(r.Metadata),
		OccurredAt: r.OccurredAt,
	}
}

func newOutboxEventRecord(event core.TransferEvent, now time.Time) *outboxEventRecord {
	return &outboxEventRecord{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		Payload:   transferEventPayload(event),
		Attempts:  0,
		CreatedAt: now,
	}
}

// transferEventPayload flattens the event into the outbox payload
// column so dispatch can rebuild it without touching the audit table.
func transferEventPayload(event core.TransferEvent) map[string]any {
	payload := map[string]any{
		"id":          event.ID,
		"name":        event.Name,
		"slot_index":  event.SlotIndex,
		"actor":       event.Actor.String(),
		"from":        event.From.String(),
		"to":          event.To.String(),
		"source":      event.Source,
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if len(event.Metadata) > 0 {
		payload["metadata"] = copyAnyMap(event.Metadata)
	}
	return payload
}

func (r *outboxEventRecord) toDomain() core.TransferEvent {
	if r == nil {
		return core.TransferEvent{}
	}
	event := core.TransferEvent{ID: r.EventID}
	payload := r.Payload
	if payload == nil {
		return event
	}
	if value, ok := payload["name"].(string); ok {
		event.Name = value
	}
	event.SlotIndex = payloadInt(payload["slot_index"])
	if value, ok := payload["actor"].(string); ok {
		event.Actor = core.NormalizePrincipal(value)
	}
	if value, ok := payload["from"].(string); ok {
		event.From = core.NormalizePrincipal(value)
	}
	if value, ok := payload["to"].(string); ok {
		event.To = core.NormalizePrincipal(value)
	}
	if value, ok := payload["source"].(string); ok {
		event.Source = value
	}
	if value, ok := payload["occurred_at"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
			event.OccurredAt = parsed
		}
	}
	if value, ok := payload["metadata"].(map[string]any); ok {
		event.Metadata = copyAnyMap(value)
	}
	return event
}

func payloadInt(raw any) int {
	switch typed := raw.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	}
	return 0
}

func copyAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
