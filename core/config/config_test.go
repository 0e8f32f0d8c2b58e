package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Watch.IntervalSeconds)
	assert.False(t, cfg.Watch.AwaitHandlers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.Enabled)
	assert.NotEmpty(t, cfg.Client.BaseURL)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("WATCH_INTERVAL_SECONDS", "42")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_ENABLED", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Watch.IntervalSeconds)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Server.Enabled)
}

func TestParseLocations(t *testing.T) {
	tests := []struct {
		name      string
		locations string
		want      []int
		ok        bool
	}{
		{name: "empty", locations: "", want: nil, ok: true},
		{name: "single", locations: "296", want: []int{296}, ok: true},
		{name: "multiple with spaces", locations: "1, 2 ,3", want: []int{1, 2, 3}, ok: true},
		{name: "trailing comma", locations: "7,", want: []int{7}, ok: true},
		{name: "malformed", locations: "1,x", want: nil, ok: false},
		{name: "negative", locations: "-4", want: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WatchConfig{Locations: tt.locations}
			got, ok := cfg.ParseLocations()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
