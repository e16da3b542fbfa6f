package metrics

import "github.com/kilianp07/powerplant/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// Expose serves the Prometheus registry on the HTTP API under Path.
	Expose bool   `json:"expose"`
	Path   string `json:"path"`
	// Address serves the metrics on a dedicated listener when set.
	Address string `json:"address"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
}
