package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidefall/geocore/internal/bus"
	"github.com/tidefall/geocore/internal/layer"
)

// Event topics published by the manager.
const (
	TopicPluginRegistered = "plugin.registered"
	TopicPluginState      = "plugin.state"
	TopicAnalysisProgress = "analysis.progress"
	TopicAnalysisDone     = "analysis.completed"
)

// StateChange is the payload of TopicPluginState events.
type StateChange struct {
	PluginID string
	State    State
	Error    string // empty unless State is StateError
}

// ManagerConfig configures the plugin manager.
type ManagerConfig struct {
	// EngineVersion is the host's semantic version, used for the
	// registration version gate.
	EngineVersion string

	// DataDir is the root under which per-plugin data directories are
	// created. Empty disables data directory creation.
	DataDir string

	// Canvas is the opaque map canvas handle exposed through plugin
	// contexts; nil in headless hosts.
	Canvas any
}

// Manager loads, orders and supervises plugins, and routes typed dispatch
// to the tool, analysis and data-provider categories.
type Manager struct {
	version    Version
	versionRaw string
	dataDir    string
	canvas     any

	layers *layer.Collection
	bus    *bus.Bus
	logger Logger

	mu          sync.RWMutex
	handles     map[string]*Handle
	regOrder    []string // registration order, for deterministic iteration
	startOrder  []string // actual start order, for reverse shutdown
	activeTools []string // most-recently-activated first

	runsMu sync.RWMutex
	runs   map[string]*Run
}

// NewManager creates a plugin manager.
//
// Parameters:
//   - cfg: host version, data directory root and canvas handle
//   - layers: shared layer collection exposed to plugins
//   - b: shared event bus exposed to plugins (may be nil; a private bus
//     is created so publishing never needs a nil check)
//   - logger: logger (may be nil)
func NewManager(cfg ManagerConfig, layers *layer.Collection, b *bus.Bus, logger Logger) (*Manager, error) {
	v, err := ParseVersion(cfg.EngineVersion)
	if err != nil {
		return nil, fmt.Errorf("engine version: %w", err)
	}
	if layers == nil {
		layers = layer.NewCollection()
	}
	if b == nil {
		b = bus.New()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Manager{
		version:    v,
		versionRaw: cfg.EngineVersion,
		dataDir:    cfg.DataDir,
		canvas:     cfg.Canvas,
		layers:     layers,
		bus:        b,
		logger:     logger,
		handles:    make(map[string]*Handle),
		runs:       make(map[string]*Run),
	}, nil
}

// EngineVersion returns the host version the manager negotiates with.
func (m *Manager) EngineVersion() string { return m.versionRaw }

// Layers returns the shared layer collection.
func (m *Manager) Layers() *layer.Collection { return m.layers }

// Bus returns the shared event bus.
func (m *Manager) Bus() *bus.Bus { return m.bus }

// Register adds a plugin to the manager without making any lifecycle
// call. Registration fails with ErrVersion when the host version is lower
// than the plugin's minimum engine version - the plugin never reaches
// Initializing in that case - and with ErrAlreadyRegistered for a taken
// id.
func (m *Manager) Register(p Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}
	desc := p.Descriptor()
	if err := desc.Validate(); err != nil {
		return err
	}

	if desc.MinEngineVersion != "" {
		min, err := ParseVersion(desc.MinEngineVersion)
		if err != nil {
			return fmt.Errorf("plugin %q: %w", desc.ID, err)
		}
		if m.version.Compare(min) < 0 {
			return fmt.Errorf("%w: plugin %q requires engine >= %s, host is %s",
				ErrVersion, desc.ID, desc.MinEngineVersion, m.versionRaw)
		}
	}

	m.mu.Lock()
	if _, exists := m.handles[desc.ID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, desc.ID)
	}
	h := newHandle(p)
	m.handles[desc.ID] = h
	m.regOrder = append(m.regOrder, desc.ID)
	m.mu.Unlock()

	m.logger.Info("plugin registered", "plugin", desc.ID, "version", desc.Version)
	m.bus.Publish(bus.Event{
		Topic:   TopicPluginRegistered,
		Source:  "engine",
		Payload: desc.Clone(),
	})
	return nil
}

// Get returns the handle for a plugin id.
func (m *Manager) Get(id string) (*Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[id]
	return h, ok
}

// List returns all handles in registration order.
func (m *Manager) List() []*Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Handle, 0, len(m.regOrder))
	for _, id := range m.regOrder {
		out = append(out, m.handles[id])
	}
	return out
}

// StartAll initializes and starts every registered plugin strictly in
// dependency order: dependencies before dependents.
//
// Failures are isolated per dependency-graph component. A plugin with a
// missing, disabled or cyclic dependency is marked StateError with a
// DependencyError; a plugin whose Initialize or Start fails is marked
// StateError; in both cases its dependents are deterministically marked
// StateError as propagated failures, while independent plugins continue
// to load. The combined errors are returned.
func (m *Manager) StartAll(ctx context.Context) error {
	order, resolveErrs := m.resolveOrder()

	errs := resolveErrs
	for _, id := range order {
		if err := m.Start(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start initializes (when needed) and starts one plugin. Its declared
// dependencies must already be Started; otherwise the plugin is marked
// StateError with a propagated DependencyError.
func (m *Manager) Start(ctx context.Context, id string) error {
	h, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}

	if h.State() == StateDisabled {
		return fmt.Errorf("%w: start on disabled plugin %q", ErrInvalidState, id)
	}

	// Dependents of a failed dependency never start into a
	// partially-initialized world.
	for _, dep := range h.Descriptor().Dependencies {
		depHandle, ok := m.Get(dep)
		if !ok || depHandle.State() != StateStarted {
			err := fmt.Errorf("%w: plugin %q requires %q to be started", ErrDependency, id, dep)
			h.markError(err)
			m.publishState(h)
			return err
		}
	}

	if h.State() == StateNotInitialized {
		pc, err := m.buildContext(h.Descriptor())
		if err != nil {
			h.markError(err)
			m.publishState(h)
			return err
		}
		if err := h.initialize(ctx, pc); err != nil {
			m.publishState(h)
			return err
		}
		m.publishState(h)
	}

	if err := h.start(ctx); err != nil {
		m.publishState(h)
		return err
	}

	m.mu.Lock()
	m.startOrder = append(m.startOrder, id)
	m.mu.Unlock()

	m.logger.Info("plugin started", "plugin", id)
	m.publishState(h)
	return nil
}

// Stop stops one started plugin and removes it from the shutdown order.
func (m *Manager) Stop(ctx context.Context, id string) error {
	h, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}

	if err := h.stop(ctx); err != nil {
		m.publishState(h)
		return err
	}

	m.mu.Lock()
	m.removeFromStartOrder(id)
	m.removeActiveToolLocked(id)
	m.mu.Unlock()

	m.logger.Info("plugin stopped", "plugin", id)
	m.publishState(h)
	return nil
}

// StopAll stops all started plugins in exactly the reverse of the order
// they were started, regardless of declared dependency order, so
// dependents release resources before their dependencies do.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	names := make([]string, len(m.startOrder))
	for i, id := range m.startOrder {
		names[len(m.startOrder)-1-i] = id
	}
	m.mu.RUnlock()

	var errs []error
	for _, id := range names {
		h, ok := m.Get(id)
		if !ok || h.State() != StateStarted {
			continue
		}
		if err := m.Stop(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Disable forces a plugin into StateDisabled from any state. Disabled
// plugins are excluded from dependency resolution and dispatch.
func (m *Manager) Disable(id string) error {
	h, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}
	if err := h.disable(); err != nil {
		return err
	}

	m.mu.Lock()
	m.removeFromStartOrder(id)
	m.removeActiveToolLocked(id)
	m.mu.Unlock()

	m.logger.Info("plugin disabled", "plugin", id)
	m.publishState(h)
	return nil
}

// resolveOrder computes a topological order over all plugins eligible for
// startup. Plugins referencing missing or disabled dependencies, and every
// member of a dependency cycle, are marked StateError with a
// DependencyError and excluded; independent plugins are unaffected.
func (m *Manager) resolveOrder() (order []string, errs []error) {
	m.mu.RLock()
	eligible := make(map[string]*Handle)
	ids := make([]string, 0, len(m.regOrder))
	for _, id := range m.regOrder {
		h := m.handles[id]
		switch h.State() {
		case StateNotInitialized, StateInitialized, StateStopped:
			eligible[id] = h
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	failed := make(map[string]error)

	// Missing or disabled dependencies fail the referencing plugin.
	for _, id := range ids {
		for _, dep := range eligible[id].Descriptor().Dependencies {
			if _, ok := eligible[dep]; ok {
				continue
			}
			depHandle, registered := m.Get(dep)
			if registered && depHandle.State() == StateStarted {
				continue // already running from an earlier StartAll
			}
			reason := "missing"
			if registered {
				reason = depHandle.State().String()
			}
			failed[id] = fmt.Errorf("%w: plugin %q dependency %q is %s", ErrDependency, id, dep, reason)
		}
	}

	// Depth-first topological sort with cycle detection. Declaration
	// order of dependencies and registration order of plugins keep the
	// result deterministic.
	const (
		white = 0 // unvisited
		grey  = 1 // on stack
		black = 2 // done
	)
	color := make(map[string]int, len(ids))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch color[id] {
		case grey:
			return false // cycle
		case black:
			return failed[id] == nil
		}
		color[id] = grey
		ok := failed[id] == nil
		for _, dep := range eligible[id].Descriptor().Dependencies {
			if _, inGraph := eligible[dep]; !inGraph {
				continue
			}
			if !visit(dep) {
				if failed[id] == nil {
					failed[id] = fmt.Errorf("%w: plugin %q dependency %q failed to resolve", ErrDependency, id, dep)
				}
				ok = false
			}
		}
		color[id] = black
		if ok {
			order = append(order, id)
			return true
		}
		if failed[id] == nil {
			failed[id] = fmt.Errorf("%w: plugin %q is part of a dependency cycle", ErrDependency, id)
		}
		return false
	}

	for _, id := range ids {
		visit(id)
	}

	for _, id := range ids {
		if err := failed[id]; err != nil {
			eligible[id].markError(err)
			m.publishState(eligible[id])
			errs = append(errs, err)
		}
	}
	return order, errs
}

// buildContext assembles the capability surface handed to one plugin at
// Initialize time, creating its data directory when a root is configured.
func (m *Manager) buildContext(desc Descriptor) (*Context, error) {
	dataDir := ""
	if m.dataDir != "" {
		dataDir = filepath.Join(m.dataDir, desc.ID)
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("plugin %q data dir: %w", desc.ID, err)
		}
	}
	return &Context{
		Canvas:  m.canvas,
		Layers:  m.layers,
		Manager: m,
		Bus:     m.bus,
		Logger:  m.logger,
		DataDir: dataDir,
	}, nil
}

func (m *Manager) publishState(h *Handle) {
	change := StateChange{
		PluginID: h.Descriptor().ID,
		State:    h.State(),
	}
	if err := h.LastError(); err != nil {
		change.Error = err.Error()
	}
	m.bus.Publish(bus.Event{
		Topic:   TopicPluginState,
		Source:  "engine",
		Payload: change,
	})
}

// removeFromStartOrder removes an id from the start order slice.
// Must be called with mu held.
func (m *Manager) removeFromStartOrder(id string) {
	for i, n := range m.startOrder {
		if n == id {
			m.startOrder = append(m.startOrder[:i], m.startOrder[i+1:]...)
			return
		}
	}
}
