// Package persistence provides durable key-value slots for the tracker lists.
// SQLite (WAL mode) is the default backend; Files keeps one JSON file per slot
// in a directory guarded by a lock file.
package persistence
