// Package sqlite implements the built-in SQLite data provider plugin.
//
// Each dataset is a table with an "id" text primary key, "x" and "y"
// point coordinate columns and any number of further columns, which load
// as feature attributes. The provider declares read, bulk insert and
// transaction capabilities; Save writes a feature store back as one
// transaction.
//
// # Thread Safety
//
// The provider serialises access through database/sql's pool, which is
// capped at one connection for SQLite. Lifecycle calls are serialised by
// the plugin manager.
package sqlite
