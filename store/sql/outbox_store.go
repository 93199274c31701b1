package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-ownership/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// OutboxStore persists transfer events awaiting dispatch in the
// ownership_outbox_events table. The event_id column carries a unique
// constraint, so re-enqueueing the same event is rejected by the
// database rather than tracked in memory.
type OutboxStore struct {
	db    *bun.DB
	repo  repository.Repository[*outboxEventRecord]
	nowFn func() time.Time
}

func (s *OutboxStore) now() time.Time {
	if s != nil && s.nowFn != nil {
		return s.nowFn()
	}
	return time.Now().UTC()
}

func (s *OutboxStore) Enqueue(ctx context.Context, event core.TransferEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: outbox store is not configured")
	}
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("sqlstore: outbox event id is required")
	}
	_, err := s.repo.Create(ctx, newOutboxEventRecord(event, s.now()))
	return err
}

func (s *OutboxStore) ClaimBatch(ctx context.Context, limit int) ([]core.TransferEvent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: outbox store is not configured")
	}
	if limit <= 0 {
		return nil, nil
	}
	now := s.now()

	var records []outboxEventRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Single guarded statement: a row stamped by a concurrent
		// dispatcher between the subquery and the update fails the
		// claimed_at IS NULL predicate and drops out of the batch, so
		// only rows this call actually claimed are returned.
		query := `
WITH claimable AS (
	SELECT id
	FROM ownership_outbox_events
	WHERE failed_at IS NULL
	  AND claimed_at IS NULL
	  AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
	ORDER BY created_at ASC
	LIMIT ?
)
UPDATE ownership_outbox_events
SET claimed_at = ?
WHERE id IN (SELECT id FROM claimable)
  AND claimed_at IS NULL
RETURNING
	id,
	event_id,
	payload,
	attempts,
	next_attempt_at,
	claimed_at,
	failed_at,
	last_error,
	created_at
`
		return tx.NewRaw(query, now, limit, now).Scan(ctx, &records)
	})
	if err != nil {
		return nil, err
	}

	out := make([]core.TransferEvent, 0, len(records))
	for _, record := range records {
		event := record.toDomain()
		if event.Metadata == nil {
			event.Metadata = map[string]any{}
		}
		event.Metadata[core.MetadataKeyOutboxAttempts] = record.Attempts
		out = append(out, event)
	}
	return out, nil
}

func (s *OutboxStore) Ack(ctx context.Context, eventID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: outbox store is not configured")
	}
	id := strings.TrimSpace(eventID)
	result, err := s.db.NewDelete().
		Model((*outboxEventRecord)(nil)).
		Where("event_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("sqlstore: outbox event not found: %s", id)
	}
	return nil
}

func (s *OutboxStore) Retry(ctx context.Context, eventID string, cause error, nextAttemptAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: outbox store is not configured")
	}
	id := strings.TrimSpace(eventID)

	query := s.db.NewUpdate().
		Model((*outboxEventRecord)(nil)).
		Set("claimed_at = NULL").
		Set("attempts = attempts + 1").
		Where("event_id = ?", id)
	if cause != nil {
		query = query.Set("last_error = ?", cause.Error())
	}
	if nextAttemptAt.IsZero() {
		query = query.Set("failed_at = ?", s.now())
	} else {
		query = query.Set("next_attempt_at = ?", nextAttemptAt.UTC())
	}

	result, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("sqlstore: outbox event not found: %s", id)
	}
	return nil
}

// Pending counts entries still waiting for delivery, failed ones
// excluded.
func (s *OutboxStore) Pending(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: outbox store is not configured")
	}
	return s.db.NewSelect().
		Model((*outboxEventRecord)(nil)).
		Where("?TableAlias.failed_at IS NULL").
		Count(ctx)
}
