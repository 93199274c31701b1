package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type slotRecord struct {
	bun.BaseModel `bun:"table:ownership_slots,alias:os"`

	ID           string    `bun:"id,pk"`
	SlotIndex    int       `bun:"slot_index,notnull"`
	CurrentOwner string    `bun:"current_owner"`
	PendingOwner string    `bun:"pending_owner"`
	Version      int64     `bun:"version,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type transferEventRecord struct {
	bun.BaseModel `bun:"table:ownership_transfer_events,alias:ote"`

	ID         string         `bun:"id,pk"`
	EventID    string         `bun:"event_id,notnull"`
	Name       string         `bun:"name,notnull"`
	SlotIndex  int            `bun:"slot_index,notnull"`
	Actor      string         `bun:"actor"`
	FromOwner  string         `bun:"from_owner"`
	ToOwner    string         `bun:"to_owner"`
	Source     string         `bun:"source"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"`
	OccurredAt time.Time      `bun:"occurred_at,nullzero,notnull,default:current_timestamp"`
}

type outboxEventRecord struct {
	bun.BaseModel `bun:"table:ownership_outbox_events,alias:oob"`

	ID            string         `bun:"id,pk"`
	EventID       string         `bun:"event_id,notnull"`
	Payload       map[string]any `bun:"payload,type:jsonb,notnull"`
	Attempts      int            `bun:"attempts,notnull"`
	NextAttemptAt *time.Time     `bun:"next_attempt_at,nullzero"`
	ClaimedAt     *time.Time     `bun:"claimed_at,nullzero"`
	FailedAt      *time.Time     `bun:"failed_at,nullzero"`
	LastError     string         `bun:"last_error"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
