package plugin

import (
	"context"
	"fmt"
	"sync"
)

// Handle is the manager's supervision record for one registered plugin:
// the state machine, the last lifecycle error and the run context used
// for cooperative cancellation.
//
// Lifecycle transitions are serialised by the handle's mutex; no two
// lifecycle calls for the same plugin overlap. State and LastError are
// safe to read concurrently.
type Handle struct {
	plugin Plugin
	desc   Descriptor

	mu      sync.Mutex
	state   State
	lastErr error

	// runCtx is the context passed to Start; analysis runs parent their
	// contexts on it, so cancelling it reaches in-flight executions.
	// cancelRun cancels it; Stop fires it first so in-flight work
	// observes cancellation before Stop returns.
	runCtx    context.Context
	cancelRun context.CancelFunc
}

func newHandle(p Plugin) *Handle {
	return &Handle{
		plugin: p,
		desc:   p.Descriptor().Clone(),
		state:  StateNotInitialized,
	}
}

// Descriptor returns the plugin's descriptor.
func (h *Handle) Descriptor() Descriptor { return h.desc }

// Plugin returns the underlying plugin for capability queries.
func (h *Handle) Plugin() Plugin { return h.plugin }

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// LastError returns the error recorded with the most recent transition to
// StateError, nil otherwise.
func (h *Handle) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// initialize drives NotInitialized → Initializing → Initialized|Error.
// A second call fails with ErrInvalidState.
func (h *Handle) initialize(ctx context.Context, pc *Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.state.canInitialize() {
		return fmt.Errorf("%w: initialize from %s (plugin %q)", ErrInvalidState, h.state, h.desc.ID)
	}
	h.state = StateInitializing

	if err := h.callPlugin(func() error { return h.plugin.Initialize(ctx, pc) }); err != nil {
		h.state = StateError
		h.lastErr = err
		return fmt.Errorf("plugin %q initialize: %w", h.desc.ID, err)
	}
	h.state = StateInitialized
	return nil
}

// start drives Initialized|Stopped → Started|Error.
func (h *Handle) start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.state.canStart() {
		return fmt.Errorf("%w: start from %s (plugin %q)", ErrInvalidState, h.state, h.desc.ID)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := h.callPlugin(func() error { return h.plugin.Start(runCtx) }); err != nil {
		cancel()
		h.state = StateError
		h.lastErr = err
		return fmt.Errorf("plugin %q start: %w", h.desc.ID, err)
	}
	h.runCtx = runCtx
	h.cancelRun = cancel
	h.state = StateStarted
	return nil
}

// runContext returns the context cancelled when the plugin leaves
// Started, nil when the plugin has never started. After Stop or Disable
// the cancelled context stays in place, so a racing caller gets a
// context that is already done rather than a live one.
func (h *Handle) runContext() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runCtx
}

// stop drives Started → Stopped|Error. The run context is cancelled
// before the plugin's Stop runs, so mid-flight work sees cooperative
// cancellation.
func (h *Handle) stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.state.canStop() {
		return fmt.Errorf("%w: stop from %s (plugin %q)", ErrInvalidState, h.state, h.desc.ID)
	}

	if h.cancelRun != nil {
		h.cancelRun()
		h.cancelRun = nil
	}
	if err := h.callPlugin(func() error { return h.plugin.Stop(ctx) }); err != nil {
		h.state = StateError
		h.lastErr = err
		return fmt.Errorf("plugin %q stop: %w", h.desc.ID, err)
	}
	h.state = StateStopped
	return nil
}

// disable forces StateDisabled from any other state, cancelling the run
// context if the plugin was started.
func (h *Handle) disable() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.state.canDisable() {
		return fmt.Errorf("%w: already disabled (plugin %q)", ErrInvalidState, h.desc.ID)
	}
	if h.cancelRun != nil {
		h.cancelRun()
		h.cancelRun = nil
	}
	h.state = StateDisabled
	return nil
}

// markError records a propagated failure (for example a failed dependency)
// without calling into the plugin.
func (h *Handle) markError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelRun != nil {
		h.cancelRun()
		h.cancelRun = nil
	}
	h.state = StateError
	h.lastErr = err
}

// callPlugin invokes a plugin lifecycle method, converting panics into
// errors so one plugin cannot destabilise the host.
func (h *Handle) callPlugin(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrExecution, r)
		}
	}()
	return fn()
}
