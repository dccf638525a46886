// Package plugin provides the extension runtime for GeoCore.
//
// A plugin is a self-describing extension unit: a Descriptor (identity,
// semantic version, engine requirement, dependencies, type set), a
// lifecycle driven exclusively by the Manager, and a set of optional
// capability interfaces the base Plugin may additionally implement (Tool,
// Analysis, DataProvider, Renderer). Category membership is declared in
// the descriptor and verified with a capability query, never with
// inheritance.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                         Manager                            │
//	│                                                            │
//	│  Register ──▶ version gate ──▶ handle (state machine)      │
//	│  StartAll ──▶ dependency resolution ──▶ init/start in      │
//	│               topological order, failures isolated         │
//	│  StopAll  ──▶ reverse of actual start order                │
//	│  Dispatch ──▶ tools (first claim) / analyses (async runs)  │
//	│               / providers (capability-gated queries)       │
//	└────────────────────────────────────────────────────────────┘
//
// # Lifecycle
//
// NotInitialized → Initializing → Initialized → Started ⇄ Stopped, with
// Error and Disabled reachable from any non-terminal state. Initialize is
// valid exactly once; Start only from Initialized or Stopped; Stop only
// from Started and it requests cooperative cancellation rather than
// forced termination. Disabled plugins are excluded from dependency
// resolution and dispatch.
//
// # Thread Safety
//
// The Manager serialises lifecycle transitions per plugin; no two
// lifecycle calls for the same plugin overlap. Dispatch entry points are
// safe for concurrent use.
package plugin
