package config

import (
	"fmt"
	"time"
)

// ServerConfig defines the HTTP listener of the production plan API.
type ServerConfig struct {
	Address string `json:"address"`
	// MaxBodyBytes limits the size of production plan requests.
	MaxBodyBytes int64 `json:"max_body_bytes"`
	// RequestTimeoutSeconds bounds the handling time of one request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8888"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 10
	}
	if c.ShutdownTimeoutSeconds == 0 {
		c.ShutdownTimeoutSeconds = 5
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	if c.RequestTimeoutSeconds < 0 || c.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// RequestTimeout returns the request timeout as a duration.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the shutdown timeout as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
