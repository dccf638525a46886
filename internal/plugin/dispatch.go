package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tidefall/geocore/internal/bus"
	"github.com/tidefall/geocore/internal/feature"
)

// ActivateTool marks a started tool plugin as active for event dispatch.
// The most recently activated tool is offered events first. Re-activating
// an already active tool moves it to the front.
func (m *Manager) ActivateTool(id string) error {
	h, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}
	if _, ok := h.Plugin().(Tool); !ok {
		return fmt.Errorf("%w: %q", ErrNotTool, id)
	}
	if h.State() != StateStarted {
		return fmt.Errorf("%w: activate tool %q in %s", ErrInvalidState, id, h.State())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeActiveToolLocked(id)
	m.activeTools = append([]string{id}, m.activeTools...)
	return nil
}

// DeactivateTool removes a tool from the active set. Unknown or inactive
// ids are a no-op.
func (m *Manager) DeactivateTool(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeActiveToolLocked(id)
}

// ActiveTools returns the active tool ids, most recently activated first.
func (m *Manager) ActiveTools() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.activeTools))
	copy(out, m.activeTools)
	return out
}

// DispatchMouseEvent offers a mouse event to the active tools in priority
// order. Dispatch stops at the first handler reporting handled; the
// return value reports whether any tool claimed the event.
//
// Handlers are synchronous and run on the caller's goroutine; they are
// expected to return quickly.
func (m *Manager) DispatchMouseEvent(ev MouseEvent) bool {
	for _, h := range m.activeToolHandles() {
		if h.Plugin().(Tool).OnMouseEvent(ev) {
			return true
		}
	}
	return false
}

// DispatchKeyEvent offers a key event to the active tools in priority
// order, first claim wins.
func (m *Manager) DispatchKeyEvent(ev KeyEvent) bool {
	for _, h := range m.activeToolHandles() {
		if h.Plugin().(Tool).OnKeyEvent(ev) {
			return true
		}
	}
	return false
}

// activeToolHandles snapshots the active, still-started tool handles in
// priority order.
func (m *Manager) activeToolHandles() []*Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Handle, 0, len(m.activeTools))
	for _, id := range m.activeTools {
		h, ok := m.handles[id]
		if !ok || h.State() != StateStarted {
			continue
		}
		out = append(out, h)
	}
	return out
}

// removeActiveToolLocked removes an id from the active tool list.
// Must be called with mu held.
func (m *Manager) removeActiveToolLocked(id string) {
	for i, n := range m.activeTools {
		if n == id {
			m.activeTools = append(m.activeTools[:i], m.activeTools[i+1:]...)
			return
		}
	}
}

// RunStatus is the lifecycle of one analysis execution.
type RunStatus string

// Run status constants.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Run tracks one asynchronous analysis execution.
type Run struct {
	id       string
	pluginID string
	cancel   context.CancelFunc
	done     chan struct{}

	mu       sync.RWMutex
	status   RunStatus
	progress Progress
	result   Result
	err      error
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// PluginID returns the executing plugin's id.
func (r *Run) PluginID() string { return r.pluginID }

// Done returns a channel closed when the run reaches a terminal status.
func (r *Run) Done() <-chan struct{} { return r.done }

// Cancel requests cooperative cancellation of the run.
func (r *Run) Cancel() { r.cancel() }

// Status returns the current run status.
func (r *Run) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Progress returns the most recent progress notification.
func (r *Run) Progress() Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progress
}

// Result returns the terminal result and error. Valid after Done is
// closed; before that it returns the zero Result.
func (r *Run) Result() (Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result, r.err
}

// ProgressEvent is the payload of TopicAnalysisProgress events.
type ProgressEvent struct {
	RunID    string
	PluginID string
	Progress Progress
}

// RunDone is the payload of TopicAnalysisDone events.
type RunDone struct {
	RunID    string
	PluginID string
	Status   RunStatus
	Result   Result
}

// RunAnalysis validates parameters and launches an asynchronous analysis
// execution on a started analysis plugin. Validation runs synchronously
// and is side-effect free; a validation failure wraps ErrExecution and no
// run is created.
//
// The run's context descends from the plugin's run context, not from
// ctx: the caller's context only gates the launch, and a run keeps
// executing after the caller goes away. Stop and Disable cancel
// in-flight runs.
//
// The returned Run settles into a terminal status even under
// cancellation: a cancelled execution reports RunCancelled with
// Success=false rather than leaving the caller waiting.
func (m *Manager) RunAnalysis(ctx context.Context, id string, params Parameters) (*Run, error) {
	h, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}
	analysis, ok := h.Plugin().(Analysis)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotAnalysis, id)
	}
	if h.State() != StateStarted {
		return nil, fmt.Errorf("%w: run analysis %q in %s", ErrInvalidState, id, h.State())
	}

	if err := analysis.ValidateParameters(params); err != nil {
		return nil, fmt.Errorf("%w: plugin %q parameters: %v", ErrExecution, id, err)
	}

	// The caller's context gates the launch only; once started, the run
	// is bound to the plugin's lifetime. Parenting on the handle's run
	// context means Stop and Disable cancel in-flight executions, while
	// the launching request going away does not.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	base := h.runContext()
	if base == nil {
		base = context.Background()
	}
	runCtx, cancel := context.WithCancel(base)
	run := &Run{
		id:       uuid.NewString(),
		pluginID: id,
		cancel:   cancel,
		done:     make(chan struct{}),
		status:   RunRunning,
	}

	m.runsMu.Lock()
	m.runs[run.id] = run
	m.runsMu.Unlock()

	go m.executeRun(runCtx, run, analysis, params)
	return run, nil
}

// Run returns a tracked analysis run by id.
func (m *Manager) Run(id string) (*Run, bool) {
	m.runsMu.RLock()
	defer m.runsMu.RUnlock()
	r, ok := m.runs[id]
	return r, ok
}

// Runs returns all tracked analysis runs.
func (m *Manager) Runs() []*Run {
	m.runsMu.RLock()
	defer m.runsMu.RUnlock()
	out := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out
}

func (m *Manager) executeRun(ctx context.Context, run *Run, analysis Analysis, params Parameters) {
	defer run.cancel()

	progress := func(p Progress) {
		run.mu.Lock()
		run.progress = p
		run.mu.Unlock()
		m.bus.Publish(bus.Event{
			Topic:   TopicAnalysisProgress,
			Source:  run.pluginID,
			Payload: ProgressEvent{RunID: run.id, PluginID: run.pluginID, Progress: p},
		})
	}

	result, err := m.safeExecute(ctx, analysis, params, progress)

	status := RunSucceeded
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, ErrCancelled) || result.Cancelled:
		status = RunCancelled
		result.Success = false
		result.Cancelled = true
		if result.Message == "" {
			result.Message = "cancelled"
		}
		err = fmt.Errorf("%w: analysis %q", ErrCancelled, run.pluginID)
	case err != nil:
		status = RunFailed
		result.Success = false
		if result.Message == "" {
			result.Message = err.Error()
		}
		err = fmt.Errorf("%w: analysis %q: %v", ErrExecution, run.pluginID, err)
	case !result.Success:
		status = RunFailed
	}

	run.mu.Lock()
	run.status = status
	run.result = result
	run.err = err
	run.mu.Unlock()
	close(run.done)

	if err != nil {
		m.logger.Warn("analysis finished", "plugin", run.pluginID, "run", run.id, "status", string(status), "error", err)
	} else {
		m.logger.Info("analysis finished", "plugin", run.pluginID, "run", run.id, "status", string(status))
	}
	m.bus.Publish(bus.Event{
		Topic:   TopicAnalysisDone,
		Source:  run.pluginID,
		Payload: RunDone{RunID: run.id, PluginID: run.pluginID, Status: status, Result: result},
	})
}

// safeExecute shields the manager from panicking analyses.
func (m *Manager) safeExecute(ctx context.Context, analysis Analysis, params Parameters, progress ProgressFunc) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return analysis.Execute(ctx, params, progress)
}

// Provider returns the data-provider capability of a started plugin.
func (m *Manager) Provider(id string) (DataProvider, error) {
	h, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}
	provider, ok := h.Plugin().(DataProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotProvider, id)
	}
	if h.State() != StateStarted {
		return nil, fmt.Errorf("%w: provider %q in %s", ErrInvalidState, id, h.State())
	}
	return provider, nil
}

// TestProviderConnection probes a provider's data source. The call never
// mutates source state.
func (m *Manager) TestProviderConnection(ctx context.Context, id string) error {
	provider, err := m.Provider(id)
	if err != nil {
		return err
	}
	return provider.TestConnection(ctx)
}

// ProviderMetadata queries a provider's dataset inventory. The call never
// mutates source state.
func (m *Manager) ProviderMetadata(ctx context.Context, id string) (ProviderMetadata, error) {
	provider, err := m.Provider(id)
	if err != nil {
		return ProviderMetadata{}, err
	}
	return provider.Metadata(ctx)
}

// LoadDataset reads a provider dataset into a feature store, after
// checking the provider declares read capability.
func (m *Manager) LoadDataset(ctx context.Context, id, dataset string) (*feature.Store, error) {
	provider, err := m.Provider(id)
	if err != nil {
		return nil, err
	}
	if !provider.Capabilities().Has(CapRead) {
		return nil, fmt.Errorf("%w: provider %q does not support read", ErrCapability, id)
	}
	return provider.Load(ctx, dataset)
}
