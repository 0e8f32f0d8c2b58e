// Package history records dispatched product events to a relational
// database, one row per event, and answers recency queries for the status
// API. The recorder is optional; without a database connection the watcher
// runs unchanged.
package history
