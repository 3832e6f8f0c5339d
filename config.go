package klein

import (
	"log/slog"
	"time"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the application configuration.
type Config struct {
	// Server configures the HTTP server Run starts.
	Server ServerConfig

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// ServerConfig configures the listener started by Run.
type ServerConfig struct {
	// ReadHeaderTimeout bounds reading request headers.
	// Default: 10 seconds.
	ReadHeaderTimeout time.Duration

	// ReadTimeout bounds reading the entire request. 0 means no limit,
	// which is the default: handlers may finish responses asynchronously
	// at an arbitrary later point, so the request lifetime is unbounded
	// from the server's point of view.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response. 0 (default) means no
	// limit, for the same reason as ReadTimeout.
	WriteTimeout time.Duration

	// IdleTimeout bounds keep-alive idle time. Default: 2 minutes.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 10 seconds.
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   10 * time.Second,
	}
}

// applyDefaults fills unset fields with defaults.
func (c Config) applyDefaults() Config {
	def := DefaultServerConfig()
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = def.ReadHeaderTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = def.IdleTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
