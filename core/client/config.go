package client

// Config holds configuration for the page fetch client.
type Config struct {
	// BaseURL is the root URL of the FreshPoint web.
	BaseURL string `mapstructure:"base_url" default:"https://my.freshpoint.cz"`
	// TimeoutSeconds is the connection and response timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
