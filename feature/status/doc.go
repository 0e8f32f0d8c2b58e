// Package status serves the read-only HTTP API of the watcher: liveness,
// the watched locations with their catalog state, filtered product
// listings and, when a history database is connected, recent events.
package status
