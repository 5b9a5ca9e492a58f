// Package history keeps a SQLite log of sent requests so earlier exchanges
// can be listed and inspected from the command line.
package history
