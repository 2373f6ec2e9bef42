// Package config loads estatekit settings from defaults, environment
// variables and command-line flags, and validates them on startup so a bad
// setting fails fast. The environment variable behind each key is listed
// in envKeys.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all settings shared by the CLI and the HTTP server.
type Config struct {
	Data     DataConfig      `koanf:"data"`
	Report   ReportConfig    `koanf:"report"`
	Server   ServerConfig    `koanf:"server"`
	Analysis AnalysisConfig  `koanf:"analysis"`
	Rate     RateLimitConfig `koanf:"rate"`
	Security SecurityConfig  `koanf:"security"`
	Logging  LoggingConfig   `koanf:"logging"`
}

// DataConfig controls where datasets are read from and how they are cleaned.
type DataConfig struct {
	// Dir is the base directory file names are resolved against (default: ./data)
	Dir string `koanf:"dir"`

	// MissingToken is the cell text treated as a missing value (default: NA)
	MissingToken string `koanf:"missing_token"`

	// RequiredColumns overrides the housing schema for validation when set
	RequiredColumns []string `koanf:"required_columns"`

	// MaxFileSize caps uploaded datasets in bytes (default: 50MB)
	MaxFileSize int64 `koanf:"max_file_size"`
}

// ReportConfig holds report defaults.
type ReportConfig struct {
	// Format is the default describe output: table, markdown, csv, json, yaml, xlsx
	Format string `koanf:"format"`

	// Percentile is the default cut point in [1,100] (default: 90)
	Percentile int `koanf:"percentile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `koanf:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `koanf:"port"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// AnalysisConfig bounds concurrent describe runs in the server.
type AnalysisConfig struct {
	// MaxConcurrent is the number of analyses allowed at once (default: 4)
	MaxConcurrent int `koanf:"max_concurrent"`

	// MaxWaitTime is how long a request waits for a slot (default: 10s)
	MaxWaitTime time.Duration `koanf:"max_wait_time"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `koanf:"enabled"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `koanf:"requests_per_minute"`

	// UploadLimit is requests per minute for the upload endpoint (default: 10)
	UploadLimit int `koanf:"upload_limit"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `koanf:"trusted_proxies"`

	// RequireAPIKey enables X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `koanf:"require_api_key"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `koanf:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `koanf:"level"`

	// Format is the log format: text or json (default: text)
	Format string `koanf:"format"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
