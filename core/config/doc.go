// Package config handles application configuration loading.
//
// Configuration is assembled from defaults declared as struct tags, a .env
// file in the working directory (if present) and environment variables, in
// increasing order of precedence. Nested keys map to underscore-separated
// environment variables, e.g. watch.interval_seconds -> WATCH_INTERVAL_SECONDS.
package config
