package plugin

import (
	"context"

	"github.com/tidefall/geocore/internal/feature"
	"github.com/tidefall/geocore/internal/geometry"
	"github.com/tidefall/geocore/internal/layer"
)

// Plugin is the base contract every extension implements. Lifecycle
// methods are called exclusively by the Manager and may suspend; they
// receive a context that is cancelled when the plugin is stopped or the
// host shuts down.
type Plugin interface {
	// Descriptor returns the plugin's self-description. It must be
	// constant for the lifetime of the instance.
	Descriptor() Descriptor

	// Initialize is called exactly once, with the context surface the
	// host exposes to this plugin.
	Initialize(ctx context.Context, pc *Context) error

	// Start makes the plugin operational. It is called from Initialized
	// or Stopped.
	Start(ctx context.Context) error

	// Stop requests cooperative shutdown of in-flight work. It is called
	// only from Started.
	Stop(ctx context.Context) error

	// Settings returns the plugin's current settings.
	Settings() Settings

	// ApplySettings replaces the plugin's settings. It is permitted in
	// any state; plugins that cache configuration at start time pick the
	// new values up at the next Start.
	ApplySettings(s Settings) error
}

// SettingsValidator is an optional capability: plugins that constrain
// their settings implement it. Valid=false comes with a human-readable
// message.
type SettingsValidator interface {
	ValidateSettings(s Settings) (valid bool, message string)
}

// MouseButton identifies the button of a mouse event.
type MouseButton string

// Mouse button constants.
const (
	MouseLeft   MouseButton = "left"
	MouseRight  MouseButton = "right"
	MouseMiddle MouseButton = "middle"
	MouseNone   MouseButton = "none"
)

// MouseEvent is an interaction event offered to tool plugins. Coordinates
// are in map space.
type MouseEvent struct {
	X      float64
	Y      float64
	Button MouseButton
	Action string // "down", "up", "move", "double"
}

// KeyEvent is a keyboard event offered to tool plugins.
type KeyEvent struct {
	Key       string
	Modifiers []string
	Action    string // "down", "up"
}

// Tool is the capability interface for tool plugins. Handlers are
// synchronous, run on the interaction thread and must return quickly;
// returning true claims the event and stops further dispatch.
type Tool interface {
	OnMouseEvent(ev MouseEvent) (handled bool)
	OnKeyEvent(ev KeyEvent) (handled bool)
}

// Parameters carries the named inputs of an analysis execution.
type Parameters map[string]any

// Progress is a progress notification from a running analysis.
type Progress struct {
	// Percent is in [0, 100].
	Percent int

	// Message optionally describes the current phase.
	Message string

	// Cancelable reports whether the analysis honours cancellation at
	// this point.
	Cancelable bool
}

// Result is the structured outcome of an analysis execution. Failure is
// carried in the result, not swallowed: Success=false with a message.
type Result struct {
	Success   bool
	Message   string
	Cancelled bool
	Outputs   map[string]any
}

// ProgressFunc receives progress notifications. It is called from the
// analysis goroutine and must not block.
type ProgressFunc func(Progress)

// Analysis is the capability interface for analysis plugins. Execute is
// long-running and must observe ctx cancellation within bounded latency,
// settling into a terminal result rather than leaving the caller waiting.
// ValidateParameters must be free of side effects.
type Analysis interface {
	ValidateParameters(params Parameters) error
	Execute(ctx context.Context, params Parameters, progress ProgressFunc) (Result, error)
}

// ProviderMetadata describes a data source without mutating it.
type ProviderMetadata struct {
	// Source identifies the connected data source (path, DSN, URL).
	Source string

	// Datasets lists the loadable datasets (tables, collections).
	Datasets []DatasetInfo
}

// DatasetInfo describes one loadable dataset.
type DatasetInfo struct {
	Name         string
	FeatureCount int64
	GeometryType geometry.GeometryType
}

// DataProvider is the capability interface for data-provider plugins.
// TestConnection and Metadata must not mutate any data source state.
// Operations beyond Capabilities() must be preceded by a capability check.
type DataProvider interface {
	Capabilities() CapabilitySet
	TestConnection(ctx context.Context) error
	Metadata(ctx context.Context) (ProviderMetadata, error)

	// Load reads a dataset into a populated feature store. Requires CapRead.
	Load(ctx context.Context, dataset string) (*feature.Store, error)
}

// Renderer is the capability interface for renderer plugins. The engine
// treats rendering as opaque; it only routes the request.
type Renderer interface {
	Render(ctx context.Context, l *layer.Layer, env geometry.Envelope) error
}
