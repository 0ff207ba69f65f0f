// Package config loads vaultq configuration from defaults, a YAML file,
// VAULTQ_ environment variables and command-line flags.
package config

import "time"

// Defaults.
const (
	DefaultDatabase    = "vault.db"
	DefaultBusyTimeout = 5 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultOutput      = "text"
	DefaultPageSize    = 200
)

// Config holds all vaultq configuration options.
type Config struct {
	Database    string        `koanf:"database" json:"database" validate:"required"`
	BusyTimeout time.Duration `koanf:"busy_timeout" json:"busy_timeout" validate:"gte=0"`
	LogLevel    string        `koanf:"log_level" json:"log_level" validate:"oneof=trace debug info warn error disabled off"`
	LogFormat   string        `koanf:"log_format" json:"log_format" validate:"oneof=console json"`
	Output      string        `koanf:"output" json:"output" validate:"oneof=text json"`
	PageSize    int           `koanf:"page_size" json:"page_size" validate:"gte=0,lte=512"`
	Verbose     bool          `koanf:"verbose" json:"verbose"`

	// Schemas names the custom mapped schemas to register, e.g. "cash.v2".
	Schemas []string `koanf:"schemas" json:"schemas" validate:"dive,required"`
}

func defaults() map[string]any {
	return map[string]any{
		"database":     DefaultDatabase,
		"busy_timeout": DefaultBusyTimeout.String(),
		"log_level":    DefaultLogLevel,
		"log_format":   DefaultLogFormat,
		"output":       DefaultOutput,
		"page_size":    DefaultPageSize,
		"verbose":      false,
		"schemas":      []string{},
	}
}
