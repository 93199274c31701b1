package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

type TransferHookCoordinator struct {
	mu         sync.RWMutex
	preCommit  []TransferHook
	postCommit []TransferHook
}

func NewTransferHookCoordinator() *TransferHookCoordinator {
	return &TransferHookCoordinator{
		preCommit:  make([]TransferHook, 0),
		postCommit: make([]TransferHook, 0),
	}
}

func (c *TransferHookCoordinator) RegisterPreCommit(hook TransferHook) {
	if c == nil || hook == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preCommit = append(c.preCommit, hook)
}

func (c *TransferHookCoordinator) RegisterPostCommit(hook TransferHook) {
	if c == nil || hook == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postCommit = append(c.postCommit, hook)
}

// ExecutePreCommit runs strict hooks synchronously in registration order.
// The first hook error is returned so the caller can abort the transition
// before any state is written. A version-conflict retry replays hooks
// for the same operation, so hooks may see a given event ID more than
// once but never with a committed transition behind it yet.
func (c *TransferHookCoordinator) ExecutePreCommit(ctx context.Context, event TransferEvent) error {
	for _, hook := range c.preHooks() {
		if hook == nil {
			continue
		}
		if err := hook.OnEvent(ctx, event); err != nil {
			return fmt.Errorf("core: pre-commit transfer hook %q failed: %w", hookName(hook), err)
		}
	}
	return nil
}

// ExecutePostCommit runs non-transactional hooks after the slot write.
// Failures are aggregated and returned for observability without implying
// rollback.
func (c *TransferHookCoordinator) ExecutePostCommit(ctx context.Context, event TransferEvent) error {
	var hookErr error
	for _, hook := range c.postHooks() {
		if hook == nil {
			continue
		}
		if err := hook.OnEvent(ctx, event); err != nil {
			hookErr = errors.Join(hookErr, fmt.Errorf("post-commit transfer hook %q failed: %w", hookName(hook), err))
		}
	}
	return hookErr
}

func (c *TransferHookCoordinator) preHooks() []TransferHook {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]TransferHook, len(c.preCommit))
	copy(out, c.preCommit)
	return out
}

func (c *TransferHookCoordinator) postHooks() []TransferHook {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]TransferHook, len(c.postCommit))
	copy(out, c.postCommit)
	return out
}

func hookName(hook TransferHook) string {
	if hook == nil {
		return "unknown"
	}
	name := strings.TrimSpace(hook.Name())
	if name == "" {
		return "unnamed"
	}
	return name
}
