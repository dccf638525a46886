// Package feature provides the in-memory feature model for GeoCore.
//
// A Feature is the atomic unit of spatial data: an immutable identity, an
// optional exclusively-owned geometry, exactly one attribute table, and an
// optional shared style. Features live in a Store, the ordered container
// that owns the spatial and attribute query operations.
//
// # Key Types
//
//   - Value: a closed tagged variant over the scalar kinds an attribute
//     may hold (string, float, int, bool, time, bytes, null)
//   - AttributeTable: ordered name→Value mapping with typed accessors
//   - Feature: identity + geometry + attributes + style
//   - Store: ordered feature container with extent, bounding-box and
//     attribute queries
//
// # Thread Safety
//
// Store read operations (GetByID, InExtent, the filters, Extent, At, Len)
// are safe for concurrent use by multiple readers. Mutation (Add, Remove,
// Clear) is NOT safe concurrently with any other operation on the same
// store; callers needing concurrent mutation must provide external
// synchronisation, for example a single writer with readers excluded
// during mutation, or a copy-on-write snapshot.
//
// Features and AttributeTables are owned by a single caller at a time and
// carry no internal locking.
package feature
