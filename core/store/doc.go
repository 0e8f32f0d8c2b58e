// Package store persists watched catalogs in an embedded key-value
// database, one record per location, so that a restarted watcher resumes
// change detection from the last observed state.
package store
