package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-ownership/core"
	ownershipmigrations "github.com/goliatone/go-ownership/migrations"
	sqlstore "github.com/goliatone/go-ownership/store/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-ownership-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"ownership_slots",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "ownership_slots" {
		t.Fatalf("expected ownership_slots table, got %q", tableName)
	}
}

func TestSlotStore_SeedGetAndVersionedUpdate(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.SlotStore()
	if store == nil {
		t.Fatalf("expected slot store from factory")
	}

	if _, err := store.Get(ctx, 0); !errors.Is(err, core.ErrRegistryNotSeeded) {
		t.Fatalf("expected ErrRegistryNotSeeded before seeding, got %v", err)
	}

	owners := []core.Principal{"alice", "bob"}
	if err := store.Seed(ctx, owners); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Seed(ctx, []core.Principal{"mallory"}); err != nil {
		t.Fatalf("re-seed should be a no-op: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 seeded slots, got %d err=%v", count, err)
	}

	slot, err := store.Get(ctx, 0)
	if err != nil {
		t.Fatalf("get slot 0: %v", err)
	}
	if slot.Current != "alice" || slot.Version != 1 {
		t.Fatalf("unexpected seeded slot: %+v", slot)
	}

	if _, err := store.Get(ctx, 9); !errors.Is(err, core.ErrSlotIndexOutOfRange) {
		t.Fatalf("expected ErrSlotIndexOutOfRange, got %v", err)
	}

	slot.Pending = "carol"
	updated, err := store.Update(ctx, slot, slot.Version)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 || updated.Pending != "carol" {
		t.Fatalf("unexpected updated slot: %+v", updated)
	}

	// A second writer with the stale version must lose.
	slot.Pending = "mallory"
	if _, err := store.Update(ctx, slot, 1); !errors.Is(err, core.ErrSlotVersionConflict) {
		t.Fatalf("expected ErrSlotVersionConflict, got %v", err)
	}

	listed, err := store.List(ctx)
	if err != nil || len(listed) != 2 {
		t.Fatalf("expected 2 slots listed, got %d err=%v", len(listed), err)
	}
	if listed[0].Index != 0 || listed[1].Index != 1 {
		t.Fatalf("expected slots ordered by index, got %+v", listed)
	}
}

// The receipt returned by a versioned update is the row this call
// committed, not the result of a later read that another writer could
// have overtaken.
func TestSlotStore_UpdateReceiptIsOwnWrite(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.SlotStore()
	if err := store.Seed(ctx, []core.Principal{"alice"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	slot, err := store.Get(ctx, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	stamp := time.Date(2026, 8, 30, 12, 0, 0, 123456789, time.UTC)
	slot.Pending = "bob"
	slot.UpdatedAt = stamp
	updated, err := store.Update(ctx, slot, slot.Version)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Current != "alice" || updated.Pending != "bob" || updated.Version != 2 {
		t.Fatalf("receipt does not match the committed write: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(stamp) {
		t.Fatalf("expected receipt to carry this call's timestamp %v, got %v", stamp, updated.UpdatedAt)
	}

	// A rival writer landing afterwards changes the row but never the
	// receipt already held by the first caller.
	if _, err := client.DB().NewUpdate().
		Table("ownership_slots").
		Set("current_owner = ?", "mallory").
		Set("pending_owner = ?", "").
		Set("version = ?", 7).
		Where("slot_index = ?", 0).
		Exec(ctx); err != nil {
		t.Fatalf("rival write: %v", err)
	}
	if updated.Current != "alice" || updated.Version != 2 {
		t.Fatalf("receipt mutated by rival write: %+v", updated)
	}
	current, err := store.Get(ctx, 0)
	if err != nil || current.Current != "mallory" || current.Version != 7 {
		t.Fatalf("expected rival state from a fresh read, got %+v err=%v", current, err)
	}
}

func TestTransferEventStore_AppendAndFilter(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.TransferEventStore()

	base := time.Now().UTC().Truncate(time.Second)
	events := []core.TransferEvent{
		{
			ID:         "evt-1",
			Name:       core.EventTransferProposed,
			SlotIndex:  0,
			Actor:      "alice",
			From:       "alice",
			To:         "bob",
			OccurredAt: base,
			Metadata:   map[string]any{"reason": "rotation"},
		},
		{
			ID:         "evt-2",
			Name:       core.EventOwnershipClaimed,
			SlotIndex:  0,
			Actor:      "bob",
			From:       "alice",
			To:         "bob",
			OccurredAt: base.Add(time.Second),
		},
		{
			ID:         "evt-3",
			Name:       core.EventTransferProposed,
			SlotIndex:  1,
			Actor:      "carol",
			From:       "carol",
			To:         "dave",
			OccurredAt: base.Add(2 * time.Second),
		},
	}
	for _, event := range events {
		if err := store.Append(ctx, event); err != nil {
			t.Fatalf("append %s: %v", event.ID, err)
		}
	}

	all, err := store.List(ctx, core.TransferEventFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 events, got %d err=%v", len(all), err)
	}
	if all[0].ID != "evt-1" || all[2].ID != "evt-3" {
		t.Fatalf("expected events ordered by occurrence, got %+v", all)
	}
	if all[0].Metadata["reason"] != "rotation" {
		t.Fatalf("expected metadata round trip, got %+v", all[0].Metadata)
	}

	slotZero := 0
	filtered, err := store.List(ctx, core.TransferEventFilter{SlotIndex: &slotZero})
	if err != nil || len(filtered) != 2 {
		t.Fatalf("expected 2 slot-0 events, got %d err=%v", len(filtered), err)
	}

	proposed, err := store.List(ctx, core.TransferEventFilter{Name: core.EventTransferProposed, Limit: 1})
	if err != nil || len(proposed) != 1 {
		t.Fatalf("expected 1 proposed event with limit, got %d err=%v", len(proposed), err)
	}
	if proposed[0].Name != core.EventTransferProposed {
		t.Fatalf("expected proposed event, got %+v", proposed[0])
	}
}

func TestOutboxStore_ClaimRetryAckLifecycle(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	outbox := factory.OutboxStore()

	event := core.TransferEvent{
		ID:         "evt-outbox-1",
		Name:       core.EventTransferProposed,
		SlotIndex:  0,
		Actor:      "alice",
		From:       "alice",
		To:         "bob",
		OccurredAt: time.Now().UTC(),
	}
	if err := outbox.Enqueue(ctx, event); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := outbox.Enqueue(ctx, event); err == nil {
		t.Fatalf("expected duplicate enqueue to violate event_id uniqueness")
	}

	claimed, err := outbox.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != event.ID {
		t.Fatalf("expected claimed event, got %+v", claimed)
	}
	if claimed[0].SlotIndex != 0 || claimed[0].To != "bob" {
		t.Fatalf("expected payload round trip, got %+v", claimed[0])
	}
	if attempts := claimed[0].Metadata[core.MetadataKeyOutboxAttempts]; attempts != 0 {
		t.Fatalf("expected 0 recorded attempts, got %v", attempts)
	}

	// Claimed entries are invisible to a second dispatcher.
	again, err := outbox.ClaimBatch(ctx, 10)
	if err != nil || len(again) != 0 {
		t.Fatalf("expected empty second claim, got %d err=%v", len(again), err)
	}

	// Retry re-arms the entry in the future, so an immediate claim
	// still skips it.
	if err := outbox.Retry(ctx, event.ID, errors.New("handler down"), time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("retry: %v", err)
	}
	deferred, err := outbox.ClaimBatch(ctx, 10)
	if err != nil || len(deferred) != 0 {
		t.Fatalf("expected deferred entry to stay hidden, got %d err=%v", len(deferred), err)
	}

	// Retry with a past attempt time makes it claimable again, now
	// carrying the bumped attempt count.
	if err := outbox.Retry(ctx, event.ID, nil, time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("second retry: %v", err)
	}
	reclaimed, err := outbox.ClaimBatch(ctx, 10)
	if err != nil || len(reclaimed) != 1 {
		t.Fatalf("expected reclaim, got %d err=%v", len(reclaimed), err)
	}
	if attempts := reclaimed[0].Metadata[core.MetadataKeyOutboxAttempts]; attempts != 2 {
		t.Fatalf("expected 2 recorded attempts, got %v", attempts)
	}

	if err := outbox.Ack(ctx, event.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	pending, err := factory.OutboxStore().(*sqlstore.OutboxStore).Pending(ctx)
	if err != nil || pending != 0 {
		t.Fatalf("expected empty outbox after ack, got %d err=%v", pending, err)
	}
	if err := outbox.Ack(ctx, event.ID); err == nil {
		t.Fatalf("expected ack of missing event to fail")
	}
}

func TestOutboxStore_ClaimStampsOnlyUnclaimedRows(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	outbox := factory.OutboxStore()

	base := time.Now().UTC()
	for i, id := range []string{"evt-race-1", "evt-race-2"} {
		event := core.TransferEvent{
			ID:         id,
			Name:       core.EventTransferProposed,
			SlotIndex:  i,
			Actor:      "alice",
			OccurredAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := outbox.Enqueue(ctx, event); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	// Stamp one row out from under the claim, the way a dispatcher on
	// another connection would between candidate selection and update.
	rivalStamp := base.Add(-time.Minute)
	if _, err := client.DB().NewUpdate().
		Table("ownership_outbox_events").
		Set("claimed_at = ?", rivalStamp).
		Where("event_id = ?", "evt-race-1").
		Exec(ctx); err != nil {
		t.Fatalf("stamp rival claim: %v", err)
	}

	claimed, err := outbox.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != "evt-race-2" {
		t.Fatalf("expected only the unclaimed row, got %+v", claimed)
	}

	// The rival's stamp survives untouched. A restamp would carry the
	// claim call's own clock, which is at or after base.
	var claimedAt time.Time
	if err := client.DB().NewRaw(
		"SELECT claimed_at FROM ownership_outbox_events WHERE event_id = ?",
		"evt-race-1",
	).Scan(ctx, &claimedAt); err != nil {
		t.Fatalf("query rival claimed_at: %v", err)
	}
	if !claimedAt.Before(base) {
		t.Fatalf("expected rival stamp %v preserved, got %v", rivalStamp, claimedAt)
	}
}

func TestOutboxStore_ZeroTimeRetryMarksFailed(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	outbox := factory.OutboxStore()

	event := core.TransferEvent{
		ID:        "evt-dead-1",
		Name:      core.EventTransferCancelled,
		SlotIndex: 1,
		Actor:     "carol",
	}
	if err := outbox.Enqueue(ctx, event); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := outbox.ClaimBatch(ctx, 1); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := outbox.Retry(ctx, event.ID, errors.New("poison payload"), time.Time{}); err != nil {
		t.Fatalf("retry to failed: %v", err)
	}

	claimed, err := outbox.ClaimBatch(ctx, 10)
	if err != nil || len(claimed) != 0 {
		t.Fatalf("expected failed entry excluded from claims, got %d err=%v", len(claimed), err)
	}

	var lastError string
	if err := client.DB().NewRaw(
		"SELECT last_error FROM ownership_outbox_events WHERE event_id = ?",
		event.ID,
	).Scan(ctx, &lastError); err != nil {
		t.Fatalf("query last_error: %v", err)
	}
	if lastError != "poison payload" {
		t.Fatalf("expected recorded failure cause, got %q", lastError)
	}
}

func TestServiceOverSQLStores_TwoPhaseTransfer(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}

	service, err := core.NewService(core.DefaultConfig(),
		core.WithRepositoryFactory(factory),
		core.WithPersistenceClient(client),
		core.WithOutboxStore(factory.OutboxStore()),
		core.WithInitialOwners("alice", "bob"),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := service.Propose(ctx, core.ProposeTransferInput{
		Caller:    "alice",
		SlotIndex: 0,
		NewOwner:  "carol",
	}); err != nil {
		t.Fatalf("propose: %v", err)
	}

	receipt, err := service.ClaimOwnership(ctx, core.ClaimOwnershipInput{
		Caller:    "carol",
		SlotIndex: 0,
	})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if receipt.Slot.Current != "carol" || !receipt.Slot.Pending.IsNull() {
		t.Fatalf("unexpected slot after claim: %+v", receipt.Slot)
	}

	owner, err := service.OwnerOf(ctx, 0)
	if err != nil || owner != "carol" {
		t.Fatalf("expected carol owns slot 0, got %q err=%v", owner, err)
	}

	// Both transitions land in the SQL audit trail and the outbox.
	events, err := service.ListTransferEvents(ctx, core.TransferEventFilter{})
	if err != nil || len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d err=%v", len(events), err)
	}
	pending, err := factory.OutboxStore().(*sqlstore.OutboxStore).Pending(ctx)
	if err != nil || pending != 2 {
		t.Fatalf("expected 2 outbox entries, got %d err=%v", pending, err)
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:ownership-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = ownershipmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != ownershipmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, ownershipmigrations.WithValidationTargets(ownershipmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
