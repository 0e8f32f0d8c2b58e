// Package database handles the optional MySQL connection used to record
// observed product events.
//
// It provides a wrapper around GORM that configures connection pooling,
// DSN timeouts and credential encoding based on the application's
// configuration. The event history feature owns its schema; this package
// only establishes connections.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Event history disabled", zap.Error(err))
//	}
package database
