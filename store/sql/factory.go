package sqlstore

import (
	"database/sql"
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-ownership/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// RepositoryFactory builds the SQL-backed stores over a shared bun
// connection. It satisfies both the store provider contract consumed
// during service setup and direct accessor use by hosts.
type RepositoryFactory struct {
	db *bun.DB

	slotStore   *SlotStore
	eventStore  *TransferEventStore
	outboxStore *OutboxStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.SlotStoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.slotStore != nil && f.eventStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) SlotStore() core.SlotStore {
	if f == nil || f.slotStore == nil {
		return nil
	}
	return f.slotStore
}

func (f *RepositoryFactory) TransferEventStore() core.TransferEventStore {
	if f == nil || f.eventStore == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) OutboxStore() core.OutboxStore {
	if f == nil || f.outboxStore == nil {
		return nil
	}
	return f.outboxStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	slotRepo := repository.NewRepository[*slotRecord](f.db, slotHandlers())
	if validator, ok := slotRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid slot repository wiring: %w", err)
		}
	}

	eventRepo := repository.NewRepository[*transferEventRecord](f.db, transferEventHandlers())
	if validator, ok := eventRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid transfer event repository wiring: %w", err)
		}
	}

	outboxRepo := repository.NewRepository[*outboxEventRecord](f.db, outboxEventHandlers())
	if validator, ok := outboxRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid outbox repository wiring: %w", err)
		}
	}

	f.slotStore = &SlotStore{db: f.db, repo: slotRepo}
	f.eventStore = &TransferEventStore{db: f.db, repo: eventRepo}
	f.outboxStore = &OutboxStore{db: f.db, repo: outboxRepo}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

// OpenPostgresDB opens a Postgres-backed bun connection using the pq
// driver.
func OpenPostgresDB(dsn string) (*bun.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLiteDB opens a SQLite-backed bun connection, suited to tests
// and single-node deployments.
func OpenSQLiteDB(dsn string) (*bun.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: sqlite dsn is required")
	}
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
