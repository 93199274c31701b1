package ownership

import "github.com/goliatone/go-ownership/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Principal = core.Principal

type OwnerSlot = core.OwnerSlot
type SlotState = core.SlotState
type SlotStore = core.SlotStore
type SlotRegistry = core.SlotRegistry

type TransferEvent = core.TransferEvent
type TransferEventFilter = core.TransferEventFilter
type TransferEventStore = core.TransferEventStore
type TransferEventHandler = core.TransferEventHandler
type TransferHook = core.TransferHook
type TransferHookCoordinator = core.TransferHookCoordinator
type TransferReceipt = core.TransferReceipt

type ProposeTransferInput = core.ProposeTransferInput
type CancelTransferInput = core.CancelTransferInput
type ClaimOwnershipInput = core.ClaimOwnershipInput

type OutboxStore = core.OutboxStore
type OutboxDispatcher = core.OutboxDispatcher
type OutboxDispatcherConfig = core.OutboxDispatcherConfig
type DispatchStats = core.DispatchStats

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorFactory       = core.WithErrorFactory
	WithErrorMapper        = core.WithErrorMapper
	WithPersistenceClient  = core.WithPersistenceClient
	WithRepositoryFactory  = core.WithRepositoryFactory
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithSlotStore          = core.WithSlotStore
	WithTransferEventStore = core.WithTransferEventStore
	WithOutboxStore        = core.WithOutboxStore
	WithHookCoordinator    = core.WithHookCoordinator
	WithIDGenerator        = core.WithIDGenerator
	WithInitialOwners      = core.WithInitialOwners
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
