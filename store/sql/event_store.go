package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-ownership/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// TransferEventStore is the append-only audit trail backed by the
// ownership_transfer_events table.
type TransferEventStore struct {
	db   *bun.DB
	repo repository.Repository[*transferEventRecord]
}

func (s *TransferEventStore) Append(ctx context.Context, event core.TransferEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: transfer event store is not configured")
	}
	_, err := s.repo.Create(ctx, newTransferEventRecord(event))
	return err
}

func (s *TransferEventStore) List(ctx context.Context, filter core.TransferEventFilter) ([]core.TransferEvent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: transfer event store is not configured")
	}

	var records []*transferEventRecord
	query := s.db.NewSelect().
		Model(&records).
		Order("occurred_at ASC")
	if filter.SlotIndex != nil {
		query = query.Where("?TableAlias.slot_index = ?", *filter.SlotIndex)
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where("?TableAlias.name = ?", name)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]core.TransferEvent, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
