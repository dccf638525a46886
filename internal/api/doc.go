// Package api implements the HTTP REST API and WebSocket server for GeoCore.
//
// This package provides:
//   - REST endpoints for plugin inventory, lifecycle actions, and analysis runs
//   - Layer and feature queries (bounding box and attribute filters)
//   - Data provider inspection (connection test, dataset metadata)
//   - WebSocket hub streaming engine bus events in real time
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The API server sits between external clients and the plugin manager +
// layer collection. Lifecycle actions and analysis runs go through the
// manager; bus events (plugin state changes, analysis progress) flow out
// to WebSocket clients via the hub.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use from multiple goroutines.
package api
