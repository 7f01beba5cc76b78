// Package document provides the storage layer for Seedbed.
// It defines the collection registry and the Store capability consumed
// by the seeding engine, with two backends: a mutex-guarded in-memory
// store for tests and library embedding, and a SQLite store with WAL
// mode and embedded schema migrations for persistent use.
package document
