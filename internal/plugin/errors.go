package plugin

import "errors"

// Domain errors for the plugin package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, plugin.ErrInvalidState) {
//	    // lifecycle call made from a disallowed state
//	}
var (
	// ErrNilPlugin is returned when a nil plugin is registered.
	ErrNilPlugin = errors.New("plugin: nil plugin")

	// ErrInvalidArgument is returned for malformed required input.
	ErrInvalidArgument = errors.New("plugin: invalid argument")

	// ErrInvalidState is returned when a lifecycle call is made from a
	// state that does not permit it.
	ErrInvalidState = errors.New("plugin: invalid state")

	// ErrNotRegistered is returned when a plugin id is unknown to the manager.
	ErrNotRegistered = errors.New("plugin: not registered")

	// ErrAlreadyRegistered is returned when a plugin id is already taken.
	ErrAlreadyRegistered = errors.New("plugin: already registered")

	// ErrDependency is returned for a missing, disabled or cyclic dependency.
	ErrDependency = errors.New("plugin: dependency error")

	// ErrVersion is returned when the host version is lower than the
	// plugin's minimum engine version.
	ErrVersion = errors.New("plugin: engine version too low")

	// ErrExecution is returned when an analysis or provider operation fails.
	ErrExecution = errors.New("plugin: execution failed")

	// ErrCancelled is returned when cooperative cancellation was observed.
	ErrCancelled = errors.New("plugin: cancelled")

	// ErrNotTool is returned when a tool operation targets a plugin
	// without tool capability.
	ErrNotTool = errors.New("plugin: not a tool plugin")

	// ErrNotAnalysis is returned when an analysis operation targets a
	// plugin without analysis capability.
	ErrNotAnalysis = errors.New("plugin: not an analysis plugin")

	// ErrNotProvider is returned when a provider operation targets a
	// plugin without data-provider capability.
	ErrNotProvider = errors.New("plugin: not a data-provider plugin")

	// ErrCapability is returned when a provider lacks the capability flag
	// an operation requires.
	ErrCapability = errors.New("plugin: capability not supported")
)
