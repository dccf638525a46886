// Package geometry defines the geometry capability surface consumed by the
// feature store and plugins.
//
// GeoCore does not implement geometry algorithms. Intersection, distance
// and transformation mathematics are supplied by external libraries that
// satisfy the Geometry and Transformer interfaces. What lives here is the
// minimum the engine itself must understand:
//
//   - Envelope: an axis-aligned bounding rectangle with the arithmetic the
//     feature store needs for extent queries (intersection, union,
//     containment).
//   - GeometryType: the classification used by type filters.
//   - Geometry: the opaque capability interface (Envelope, Intersects,
//     Distance, Copy, Type, IsValid).
//   - Transformer: the coordinate transformation capability.
//   - Point: a minimal concrete geometry. Data providers that read
//     coordinate pairs (for example the built-in SQLite provider) need
//     something to materialise; a point's envelope arithmetic is
//     degenerate-rectangle maths, not an algorithm.
//
// # Thread Safety
//
// Envelope and Point are immutable value types and safe to share.
// Implementations of Geometry supplied by external libraries must be safe
// for concurrent reads; the feature store calls them from multiple readers.
package geometry
