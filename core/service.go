package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Service is the OwnerSlotRegistry: an ordered sequence of N
// independently transferable owner slots, each running the two-phase
// propose/cancel/claim state machine.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	slotStore         SlotStore
	eventStore        TransferEventStore
	outboxStore       OutboxStore
	hooks             *TransferHookCoordinator
	idGenerator       IDGenerator

	slotCount int
	slotLocks []sync.Mutex
	nowFn     func() time.Time
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	SlotStore         SlotStore
	EventStore        TransferEventStore
	OutboxStore       OutboxStore
	Hooks             *TransferHookCoordinator
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("ownership", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("ownership"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.idGenerator == nil {
		builder.idGenerator = uuid.NewString
	}
	if builder.hooks == nil {
		builder.hooks = NewTransferHookCoordinator()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.slotStore == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				builder.slotStore = storeProvider.SlotStore()
				if builder.eventStore == nil {
					builder.eventStore = storeProvider.TransferEventStore()
				}
			}
		} else if storeProvider, ok := builder.repositoryFactory.(SlotStoreProvider); ok {
			builder.slotStore = storeProvider.SlotStore()
			if builder.eventStore == nil {
				builder.eventStore = storeProvider.TransferEventStore()
			}
		}
	}
	if builder.outboxStore == nil && builder.repositoryFactory != nil {
		if storeProvider, ok := builder.repositoryFactory.(interface{ OutboxStore() OutboxStore }); ok {
			builder.outboxStore = storeProvider.OutboxStore()
		}
	}
	if builder.slotStore == nil {
		builder.slotStore = NewMemorySlotStore()
	}
	if builder.eventStore == nil {
		builder.eventStore = NewMemoryTransferEventStore()
	}

	owners := builder.initialOwners
	if len(owners) == 0 {
		owners = finalConfig.Owners()
	}
	ctx := context.Background()
	if len(owners) > 0 {
		if err := builder.slotStore.Seed(ctx, owners); err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
	}
	count, err := builder.slotStore.Count(ctx)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	if count < 1 {
		return nil, mapBuildError(builder.errorMapper,
			fmt.Errorf("core: at least one owner slot is required"))
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		slotStore:         builder.slotStore,
		eventStore:        builder.eventStore,
		outboxStore:       builder.outboxStore,
		hooks:             builder.hooks,
		idGenerator:       builder.idGenerator,
		slotCount:         count,
		slotLocks:         make([]sync.Mutex, count),
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

// SlotCount is the configured N. Fixed for the service lifetime.
func (s *Service) SlotCount() int {
	if s == nil {
		return 0
	}
	return s.slotCount
}

func (s *Service) Hooks() *TransferHookCoordinator {
	if s == nil {
		return nil
	}
	return s.hooks
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		SlotStore:         s.slotStore,
		EventStore:        s.eventStore,
		OutboxStore:       s.outboxStore,
		Hooks:             s.hooks,
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
