package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	ownership "github.com/goliatone/go-ownership"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// RegisterOwnership wires the full ownership command and query surface
// of a facade into the registry and the dispatcher. Returned
// subscriptions stay active until unsubscribed; on any registration
// failure every subscription made so far is rolled back.
func RegisterOwnership(
	adapter *RegistryAdapter,
	facade *ownership.Facade,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if facade == nil {
		return nil, fmt.Errorf("gocommand: ownership facade is required")
	}

	commands := facade.Commands()
	queries := facade.Queries()

	var subscriptions []commanddispatcher.Subscription
	unsubscribeAll := func() {
		for _, subscription := range subscriptions {
			if subscription != nil {
				subscription.Unsubscribe()
			}
		}
	}

	registerCmd := func(sub commanddispatcher.Subscription, cmd any) error {
		subscriptions = append(subscriptions, sub)
		if err := adapter.RegisterCommand(cmd); err != nil {
			unsubscribeAll()
			return err
		}
		return nil
	}

	if err := registerCmd(SubscribeCommand(commands.ProposeTransfer, runnerOpts...), commands.ProposeTransfer); err != nil {
		return nil, err
	}
	if err := registerCmd(SubscribeCommand(commands.CancelTransfer, runnerOpts...), commands.CancelTransfer); err != nil {
		return nil, err
	}
	if err := registerCmd(SubscribeCommand(commands.ClaimOwnership, runnerOpts...), commands.ClaimOwnership); err != nil {
		return nil, err
	}
	if err := registerCmd(SubscribeQuery(queries.GetOwner, runnerOpts...), queries.GetOwner); err != nil {
		return nil, err
	}
	if err := registerCmd(SubscribeQuery(queries.GetPendingOwner, runnerOpts...), queries.GetPendingOwner); err != nil {
		return nil, err
	}
	if err := registerCmd(SubscribeQuery(queries.CheckOwner, runnerOpts...), queries.CheckOwner); err != nil {
		return nil, err
	}
	if err := registerCmd(SubscribeQuery(queries.ListSlots, runnerOpts...), queries.ListSlots); err != nil {
		return nil, err
	}
	if err := registerCmd(SubscribeQuery(queries.ListTransferEvents, runnerOpts...), queries.ListTransferEvents); err != nil {
		return nil, err
	}

	return subscriptions, nil
}
