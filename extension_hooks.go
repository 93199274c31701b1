package ownership

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-ownership/core"
)

// ProjectorPack groups named transfer-event projectors registered by a
// host or an extension module.
type ProjectorPack struct {
	Name       string
	Projectors map[string]core.TransferEventHandler
}

// HookPack groups transfer hooks. PreCommit hooks may veto an
// operation; PostCommit hooks observe committed transitions.
type HookPack struct {
	Name       string
	PreCommit  []core.TransferHook
	PostCommit []core.TransferHook
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

type ExtensionHooks struct {
	mu sync.RWMutex

	projectorPacks map[string]ProjectorPack
	hookPacks      map[string]HookPack
	bundles        map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		projectorPacks: map[string]ProjectorPack{},
		hookPacks:      map[string]HookPack{},
		bundles:        map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterProjectorPack(pack ProjectorPack) error {
	if h == nil {
		return fmt.Errorf("ownership: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("ownership: projector pack name is required")
	}
	if len(pack.Projectors) == 0 {
		return fmt.Errorf("ownership: projector pack %q has no projectors", name)
	}

	normalized := ProjectorPack{
		Name:       name,
		Projectors: make(map[string]core.TransferEventHandler, len(pack.Projectors)),
	}
	for key, projector := range pack.Projectors {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("ownership: projector pack %q has an unnamed projector", name)
		}
		if projector == nil {
			return fmt.Errorf("ownership: projector pack %q projector %q is nil", name, key)
		}
		normalized.Projectors[key] = projector
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.projectorPacks[name]; exists {
		return fmt.Errorf("ownership: projector pack %q already registered", name)
	}
	h.projectorPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterHookPack(pack HookPack) error {
	if h == nil {
		return fmt.Errorf("ownership: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("ownership: hook pack name is required")
	}
	if len(pack.PreCommit) == 0 && len(pack.PostCommit) == 0 {
		return fmt.Errorf("ownership: hook pack %q has no hooks", name)
	}

	normalized := HookPack{
		Name:       name,
		PreCommit:  append([]core.TransferHook(nil), pack.PreCommit...),
		PostCommit: append([]core.TransferHook(nil), pack.PostCommit...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.hookPacks[name]; exists {
		return fmt.Errorf("ownership: hook pack %q already registered", name)
	}
	h.hookPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("ownership: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("ownership: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("ownership: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("ownership: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// ApplyProjectorPacks registers every pack projector on the target
// registry, keyed as "<pack>.<projector>".
func (h *ExtensionHooks) ApplyProjectorPacks(registry core.ProjectorRegistry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("ownership: projector registry is required")
	}

	for _, pack := range h.ProjectorPacks() {
		keys := make([]string, 0, len(pack.Projectors))
		for key := range pack.Projectors {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			registry.Register(pack.Name+"."+key, pack.Projectors[key])
		}
	}
	return nil
}

// ApplyHookPacks registers every pack hook on the target coordinator
// in pack-name order.
func (h *ExtensionHooks) ApplyHookPacks(coordinator *core.TransferHookCoordinator) error {
	if h == nil {
		return nil
	}
	if coordinator == nil {
		return fmt.Errorf("ownership: hook coordinator is required")
	}

	for _, pack := range h.HookPacks() {
		for _, hook := range pack.PreCommit {
			coordinator.RegisterPreCommit(hook)
		}
		for _, hook := range pack.PostCommit {
			coordinator.RegisterPostCommit(hook)
		}
	}
	return nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("ownership: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) ProjectorPacks() []ProjectorPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.projectorPacks))
	for name := range h.projectorPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ProjectorPack, 0, len(names))
	for _, name := range names {
		pack := h.projectorPacks[name]
		copied := ProjectorPack{
			Name:       pack.Name,
			Projectors: make(map[string]core.TransferEventHandler, len(pack.Projectors)),
		}
		for key, projector := range pack.Projectors {
			copied.Projectors[key] = projector
		}
		out = append(out, copied)
	}
	return out
}

func (h *ExtensionHooks) HookPacks() []HookPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.hookPacks))
	for name := range h.hookPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HookPack, 0, len(names))
	for _, name := range names {
		pack := h.hookPacks[name]
		out = append(out, HookPack{
			Name:       pack.Name,
			PreCommit:  append([]core.TransferHook(nil), pack.PreCommit...),
			PostCommit: append([]core.TransferHook(nil), pack.PostCommit...),
		})
	}
	return out
}
