// Package layer provides the layer collection shared across plugins.
//
// A Layer associates a name with a feature store and a visibility flag.
// The Collection is the ordered set of layers a host exposes through the
// plugin context; data-provider plugins add layers, tool and analysis
// plugins read them. When a bus is attached with SetBus, Add and Remove
// publish layer change events.
//
// # Thread Safety
//
// Collection is safe for concurrent use; all operations are protected by
// a read-write mutex. The feature stores inside layers keep their own
// contract: concurrent reads are safe, mutation needs external
// synchronisation.
package layer
