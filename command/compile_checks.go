package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ProposeTransferMessage] = (*ProposeTransferCommand)(nil)
	_ gocmd.Commander[CancelTransferMessage]  = (*CancelTransferCommand)(nil)
	_ gocmd.Commander[ClaimOwnershipMessage]  = (*ClaimOwnershipCommand)(nil)
)
