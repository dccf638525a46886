package plugin

// State is the lifecycle state of a plugin.
type State int

// Plugin lifecycle states.
const (
	// StateNotInitialized - registered, no lifecycle call made yet.
	StateNotInitialized State = iota

	// StateInitializing - Initialize is in flight.
	StateInitializing

	// StateInitialized - Initialize succeeded, not yet started.
	StateInitialized

	// StateStarted - plugin is running.
	StateStarted

	// StateStopped - plugin was started and has been stopped.
	StateStopped

	// StateError - a lifecycle call failed; see the handle's last error.
	StateError

	// StateDisabled - excluded from dependency resolution and dispatch.
	StateDisabled
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotInitialized:
		return "not_initialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// canInitialize reports whether Initialize may be called from s.
func (s State) canInitialize() bool { return s == StateNotInitialized }

// canStart reports whether Start may be called from s.
func (s State) canStart() bool { return s == StateInitialized || s == StateStopped }

// canStop reports whether Stop may be called from s.
func (s State) canStop() bool { return s == StateStarted }

// canDisable reports whether Disable may be called from s.
func (s State) canDisable() bool { return s != StateDisabled }
