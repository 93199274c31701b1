package ownership

import (
	"fmt"

	ownershipcommand "github.com/goliatone/go-ownership/command"
	ownershipquery "github.com/goliatone/go-ownership/query"
)

// CommandQueryService is the surface the facade wires commands and
// queries against. *core.Service satisfies it.
type CommandQueryService interface {
	ownershipcommand.MutatingService
	ownershipquery.SlotReader
	ownershipquery.TransferEventReader
}

type Commands struct {
	ProposeTransfer *ownershipcommand.ProposeTransferCommand
	CancelTransfer  *ownershipcommand.CancelTransferCommand
	ClaimOwnership  *ownershipcommand.ClaimOwnershipCommand
}

type Queries struct {
	GetOwner           *ownershipquery.GetOwnerQuery
	GetPendingOwner    *ownershipquery.GetPendingOwnerQuery
	CheckOwner         *ownershipquery.CheckOwnerQuery
	ListSlots          *ownershipquery.ListSlotsQuery
	ListTransferEvents *ownershipquery.ListTransferEventsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	eventReader ownershipquery.TransferEventReader
}

// WithTransferEventReader substitutes the audit-trail reader, for
// hosts that project transfer events into their own store.
func WithTransferEventReader(reader ownershipquery.TransferEventReader) FacadeOption {
	return func(options *facadeOptions) {
		options.eventReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("ownership: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.eventReader
	if reader == nil {
		reader = service
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		ProposeTransfer: ownershipcommand.NewProposeTransferCommand(service),
		CancelTransfer:  ownershipcommand.NewCancelTransferCommand(service),
		ClaimOwnership:  ownershipcommand.NewClaimOwnershipCommand(service),
	}
	facade.queries = Queries{
		GetOwner:           ownershipquery.NewGetOwnerQuery(service),
		GetPendingOwner:    ownershipquery.NewGetPendingOwnerQuery(service),
		CheckOwner:         ownershipquery.NewCheckOwnerQuery(service),
		ListSlots:          ownershipquery.NewListSlotsQuery(service),
		ListTransferEvents: ownershipquery.NewListTransferEventsQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
