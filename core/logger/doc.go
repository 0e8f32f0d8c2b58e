// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and a helper to bind log entries to the watched
// FreshPoint location they belong to.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Watcher started")
//
//	// In per-page code:
//	l := logger.WithLocation(log, page.LocationID())
//	l.Warn("Fetch failed", zap.Error(err))
package logger
