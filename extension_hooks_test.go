package ownership

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-ownership/core"
)

type namedProjector struct {
	name    string
	handled []string
}

func (p *namedProjector) Handle(_ context.Context, event core.TransferEvent) error {
	p.handled = append(p.handled, event.ID)
	return nil
}

type namedHook struct {
	name  string
	calls int
}

func (h *namedHook) Name() string { return h.name }

func (h *namedHook) OnEvent(context.Context, core.TransferEvent) error {
	h.calls++
	return nil
}

func TestRegisterProjectorPackValidation(t *testing.T) {
	hooks := NewExtensionHooks()

	if err := hooks.RegisterProjectorPack(ProjectorPack{}); err == nil {
		t.Fatalf("expected unnamed pack rejection")
	}
	if err := hooks.RegisterProjectorPack(ProjectorPack{Name: "empty"}); err == nil {
		t.Fatalf("expected empty pack rejection")
	}
	if err := hooks.RegisterProjectorPack(ProjectorPack{
		Name:       "bad",
		Projectors: map[string]core.TransferEventHandler{"": &namedProjector{}},
	}); err == nil {
		t.Fatalf("expected unnamed projector rejection")
	}
	if err := hooks.RegisterProjectorPack(ProjectorPack{
		Name:       "bad",
		Projectors: map[string]core.TransferEventHandler{"audit": nil},
	}); err == nil {
		t.Fatalf("expected nil projector rejection")
	}

	pack := ProjectorPack{
		Name:       "billing",
		Projectors: map[string]core.TransferEventHandler{"audit": &namedProjector{name: "audit"}},
	}
	if err := hooks.RegisterProjectorPack(pack); err != nil {
		t.Fatalf("register pack: %v", err)
	}
	if err := hooks.RegisterProjectorPack(pack); err == nil {
		t.Fatalf("expected duplicate pack rejection")
	}
}

func TestApplyProjectorPacksNamespacesKeys(t *testing.T) {
	hooks := NewExtensionHooks()
	audit := &namedProjector{name: "audit"}
	notify := &namedProjector{name: "notify"}
	if err := hooks.RegisterProjectorPack(ProjectorPack{
		Name: "billing",
		Projectors: map[string]core.TransferEventHandler{
			"audit":  audit,
			"notify": notify,
		},
	}); err != nil {
		t.Fatalf("register pack: %v", err)
	}

	registry := core.NewTransferProjectorRegistry()
	if err := hooks.ApplyProjectorPacks(registry); err != nil {
		t.Fatalf("apply packs: %v", err)
	}
	if err := hooks.ApplyProjectorPacks(nil); err == nil {
		t.Fatalf("expected nil registry rejection")
	}

	handlers := registry.Handlers()
	if len(handlers) != 2 {
		t.Fatalf("expected 2 registered projectors, got %d", len(handlers))
	}

	event := core.TransferEvent{ID: "evt-ext-1", Name: core.EventTransferProposed}
	for _, handler := range handlers {
		if err := handler.Handle(context.Background(), event); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(audit.handled) != 1 || len(notify.handled) != 1 {
		t.Fatalf("expected both projectors to receive the event")
	}
}

func TestApplyHookPacksRegistersOnCoordinator(t *testing.T) {
	hooks := NewExtensionHooks()

	if err := hooks.RegisterHookPack(HookPack{Name: "empty"}); err == nil {
		t.Fatalf("expected hookless pack rejection")
	}

	pre := &namedHook{name: "veto"}
	post := &namedHook{name: "observe"}
	if err := hooks.RegisterHookPack(HookPack{
		Name:       "compliance",
		PreCommit:  []core.TransferHook{pre},
		PostCommit: []core.TransferHook{post},
	}); err != nil {
		t.Fatalf("register hook pack: %v", err)
	}

	coordinator := core.NewTransferHookCoordinator()
	if err := hooks.ApplyHookPacks(coordinator); err != nil {
		t.Fatalf("apply hook packs: %v", err)
	}

	event := core.TransferEvent{ID: "evt-ext-2", Name: core.EventOwnershipClaimed}
	if err := coordinator.ExecutePreCommit(context.Background(), event); err != nil {
		t.Fatalf("pre-commit: %v", err)
	}
	if err := coordinator.ExecutePostCommit(context.Background(), event); err != nil {
		t.Fatalf("post-commit: %v", err)
	}
	if pre.calls != 1 || post.calls != 1 {
		t.Fatalf("expected both hooks to run once, got pre=%d post=%d", pre.calls, post.calls)
	}
}

func TestBuildCommandQueryBundles(t *testing.T) {
	hooks := NewExtensionHooks()
	service := newFacadeService(t, "alice")

	if err := hooks.RegisterCommandQueryBundle("", nil); err == nil {
		t.Fatalf("expected unnamed bundle rejection")
	}
	if err := hooks.RegisterCommandQueryBundle("reporting", nil); err == nil {
		t.Fatalf("expected nil factory rejection")
	}

	if err := hooks.RegisterCommandQueryBundle("reporting", func(service CommandQueryService) (any, error) {
		return fmt.Sprintf("bundle-for-%T", service), nil
	}); err != nil {
		t.Fatalf("register bundle: %v", err)
	}
	if err := hooks.RegisterCommandQueryBundle("reporting", func(CommandQueryService) (any, error) {
		return nil, nil
	}); err == nil {
		t.Fatalf("expected duplicate bundle rejection")
	}

	bundles, err := hooks.BuildCommandQueryBundles(service)
	if err != nil {
		t.Fatalf("build bundles: %v", err)
	}
	if len(bundles) != 1 || bundles["reporting"] == nil {
		t.Fatalf("expected reporting bundle, got %+v", bundles)
	}

	failure := errors.New("bundle exploded")
	if err := hooks.RegisterCommandQueryBundle("broken", func(CommandQueryService) (any, error) {
		return nil, failure
	}); err != nil {
		t.Fatalf("register broken bundle: %v", err)
	}
	if _, err := hooks.BuildCommandQueryBundles(service); !errors.Is(err, failure) {
		t.Fatalf("expected factory failure propagation, got %v", err)
	}
	if _, err := hooks.BuildCommandQueryBundles(nil); err == nil {
		t.Fatalf("expected nil service rejection")
	}
}
