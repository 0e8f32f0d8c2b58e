package config

import (
	"reflect"
	"strconv"
	"strings"

	"freshpoint-watch/core/client"
	"freshpoint-watch/core/database"
	"freshpoint-watch/core/logger"
	"freshpoint-watch/core/store"
	"freshpoint-watch/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// WatchConfig holds configuration for the polling watcher.
type WatchConfig struct {
	// Locations is a comma-separated list of location IDs to watch.
	Locations string `mapstructure:"locations" default:""`
	// IntervalSeconds is the delay between two update cycles.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"10"`
	// AwaitHandlers makes each update cycle wait for all event handlers
	// to finish before the next cycle is scheduled.
	AwaitHandlers bool `mapstructure:"await_handlers" default:"false"`
}

// ServerConfig holds configuration for the status HTTP server.
type ServerConfig struct {
	// Enabled controls whether the status API is served.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Host is the listen address of the status API.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is the listen port of the status API.
	Port int `mapstructure:"port" default:"8080"`
}

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Watch holds configuration for the polling watcher.
	Watch WatchConfig `mapstructure:"watch"`
	// Server holds configuration for the status HTTP server.
	Server ServerConfig `mapstructure:"server"`
	// Client holds configuration for the FreshPoint page fetch client.
	Client client.Config `mapstructure:"client"`
	// Store holds configuration for the local catalog store.
	Store store.Config `mapstructure:"store"`
	// Storage holds configuration for the snapshot archive (e.g. S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Database holds configuration for the event history database.
	Database database.Config `mapstructure:"database"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// Load .env file if it exists. The error is ignored on purpose so that
	// production deployments without a .env file keep working.
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. WATCH_INTERVAL_SECONDS
	// -> watch.interval_seconds)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values
// in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}

// ParseLocations splits the comma-separated locations list into IDs.
// Blank entries are skipped; a malformed entry yields ok=false.
func (c *WatchConfig) ParseLocations() (ids []int, ok bool) {
	ok = true
	for _, part := range strings.Split(c.Locations, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id < 0 {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, ok
}
