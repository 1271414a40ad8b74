// Package database opens the enodebd SQLite database and applies its
// schema migrations.
//
// One connection serves all writers; WAL mode lets readers proceed during
// writes. Migrations are plain SQL files embedded by package migrations:
//
//	20261001_090000_initial_schema.up.sql
//	20261001_090000_initial_schema.down.sql
//
// Each runs in its own transaction and is recorded in schema_migrations.
//
// Repository tests open an in-memory database with OpenMemory and run the
// real migrations against it.
package database
