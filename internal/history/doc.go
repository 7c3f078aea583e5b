// Package history persists a record of maintenance and installation
// activity in a SQLite database under the state directory. Events are
// append-only; Prune keeps the table bounded.
package history
