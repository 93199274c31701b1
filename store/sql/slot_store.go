package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-ownership/core"
	"github.com/uptrace/bun"
)

// SlotStore persists the owner slot sequence. Update is a
// compare-and-swap on the stored version, so concurrent writers from
// other processes surface as ErrSlotVersionConflict instead of lost
// updates.
type SlotStore struct {
	db   *bun.DB
	repo repository.Repository[*slotRecord]
}

func (s *SlotStore) Seed(ctx context.Context, owners []core.Principal) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: slot store is not configured")
	}
	if len(owners) == 0 {
		return fmt.Errorf("sqlstore: at least one initial owner is required")
	}
	for idx, owner := range owners {
		if owner.IsNull() {
			return fmt.Errorf("%w: initial owner for slot %d", core.ErrNullPrincipal, idx)
		}
	}

	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	records := make([]*slotRecord, 0, len(owners))
	for idx, owner := range owners {
		records = append(records, newSlotRecord(core.OwnerSlot{
			Index:     idx,
			Current:   core.NormalizePrincipal(owner.String()),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&records).Exec(ctx)
		return err
	})
}

func (s *SlotStore) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: slot store is not configured")
	}
	count, err := s.db.NewSelect().Model((*slotRecord)(nil)).Count(ctx)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SlotStore) Get(ctx context.Context, index int) (core.OwnerSlot, error) {
	if s == nil || s.db == nil {
		return core.OwnerSlot{}, fmt.Errorf("sqlstore: slot store is not configured")
	}
	record := new(slotRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.slot_index = ?", index).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			count, countErr := s.Count(ctx)
			if countErr != nil {
				return core.OwnerSlot{}, countErr
			}
			if count == 0 {
				return core.OwnerSlot{}, core.ErrRegistryNotSeeded
			}
			return core.OwnerSlot{}, fmt.Errorf("%w: %d of %d", core.ErrSlotIndexOutOfRange, index, count)
		}
		return core.OwnerSlot{}, err
	}
	return record.toDomain(), nil
}

func (s *SlotStore) List(ctx context.Context) ([]core.OwnerSlot, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: slot store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("slot_index ASC"),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrRegistryNotSeeded
	}
	out := make([]core.OwnerSlot, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *SlotStore) Update(ctx context.Context, slot core.OwnerSlot, expectedVersion int64) (core.OwnerSlot, error) {
	if s == nil || s.db == nil {
		return core.OwnerSlot{}, fmt.Errorf("sqlstore: slot store is not configured")
	}

	now := slot.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	nextVersion := expectedVersion + 1

	result, err := s.db.NewUpdate().
		Model((*slotRecord)(nil)).
		Set("current_owner = ?", slot.Current.String()).
		Set("pending_owner = ?", slot.Pending.String()).
		Set("version = ?", nextVersion).
		Set("updated_at = ?", now).
		Where("slot_index = ?", slot.Index).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return core.OwnerSlot{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return core.OwnerSlot{}, err
	}
	if affected == 0 {
		// Either a stale version or an index that does not exist.
		// Re-read to tell the two apart.
		current, getErr := s.Get(ctx, slot.Index)
		if getErr != nil {
			return core.OwnerSlot{}, getErr
		}
		return core.OwnerSlot{}, fmt.Errorf("%w: slot %d expected version %d got %d",
			core.ErrSlotVersionConflict, slot.Index, expectedVersion, current.Version)
	}

	// The guarded update hit exactly one row, so the committed state is
	// this call's own write. Returning it directly keeps the receipt
	// tied to this version even when a later writer lands immediately
	// after.
	updated := slot
	updated.Version = nextVersion
	updated.UpdatedAt = now
	return updated, nil
}
