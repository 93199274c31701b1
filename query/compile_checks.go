package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ownership/core"
)

var (
	_ gocmd.Querier[GetOwnerMessage, core.Principal]                 = (*GetOwnerQuery)(nil)
	_ gocmd.Querier[GetPendingOwnerMessage, PendingOwner]            = (*GetPendingOwnerQuery)(nil)
	_ gocmd.Querier[CheckOwnerMessage, bool]                         = (*CheckOwnerQuery)(nil)
	_ gocmd.Querier[ListSlotsMessage, []core.OwnerSlot]              = (*ListSlotsQuery)(nil)
	_ gocmd.Querier[ListTransferEventsMessage, []core.TransferEvent] = (*ListTransferEventsQuery)(nil)
)
