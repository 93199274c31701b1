package sqlstore

import "github.com/goliatone/go-ownership/core"

var (
	_ core.SlotStore              = (*SlotStore)(nil)
	_ core.SlotStore              = (*CachedSlotStore)(nil)
	_ core.TransferEventStore     = (*TransferEventStore)(nil)
	_ core.OutboxStore            = (*OutboxStore)(nil)
	_ core.SlotStoreProvider      = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
