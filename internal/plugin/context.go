package plugin

import (
	"github.com/tidefall/geocore/internal/bus"
	"github.com/tidefall/geocore/internal/layer"
)

// Logger is the logging interface handed to plugins. It is satisfied by
// logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Context is the capability surface a host exposes to each plugin.
// Exactly one Context instance is handed to a plugin at Initialize time;
// plugins must not share it with other plugins.
//
// Canvas is opaque to the engine: UI hosts pass their map canvas handle,
// headless hosts pass nil.
type Context struct {
	// Canvas is the host's map canvas handle, nil in headless hosts.
	Canvas any

	// Layers is the shared layer collection.
	Layers *layer.Collection

	// Manager is the plugin manager driving this plugin.
	Manager *Manager

	// Bus is the shared event bus. Delivery order is the only ordering
	// guarantee across plugins.
	Bus *bus.Bus

	// Logger is a logger scoped to the plugin.
	Logger Logger

	// DataDir is the plugin-scoped data directory path. It exists by the
	// time Initialize is called.
	DataDir string
}
