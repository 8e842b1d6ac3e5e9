// Package config defines cronkeeper's configuration.
//
// The file is YAML (default ~/.cronkeeper/config.yaml). Values can be
// overridden with CRONKEEPER_* environment variables, which may also come from
// a .env file in the working directory.
package config

import (
	"net"
	"strconv"

	"github.com/creasty/defaults"
)

// Listing transports.
const (
	TransportStdio       = "stdio"
	TransportEventStream = "event-stream"
	TransportWebSocket   = "websocket"
)

// Table backends.
const (
	BackendUser = "user"
	BackendFile = "file"
)

// Config is the root configuration.
type Config struct {
	// ManagedOnly restricts listings to entries carrying the cronkeeper marker.
	ManagedOnly bool `yaml:"managed_only" default:"true"`
	// Transport selects how GET /schedules renders the listing.
	Transport string `yaml:"transport" default:"stdio" validate:"oneof=stdio event-stream websocket"`

	Table TableConfig `yaml:"table"`
	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`
}

// TableConfig selects the cron table cronkeeper manages.
type TableConfig struct {
	Backend string `yaml:"backend" default:"user" validate:"oneof=user file"`
	// Path is the table file for the file backend.
	Path string `yaml:"path" validate:"required_if=Backend file"`
	// User manages another user's crontab (user backend, needs privileges).
	User string `yaml:"user"`
	// Binary overrides the crontab executable (user backend).
	Binary string `yaml:"binary"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Host string `yaml:"host" default:"127.0.0.1"`
	Port int    `yaml:"port" default:"8765" validate:"min=1,max=65535"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	// Only fails for non-pointer arguments.
	_ = defaults.Set(&cfg)
	return cfg
}
