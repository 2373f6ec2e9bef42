package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ErrInvalid wraps every configuration error, whether a value failed to
// decode or failed validation.
var ErrInvalid = errors.New("invalid configuration")

// defaults are loaded first and overridden by the environment, then flags.
var defaults = map[string]any{
	"data.dir":                 "./data",
	"data.missing_token":       "NA",
	"data.max_file_size":       int64(50 << 20),
	"report.format":            "table",
	"report.percentile":        90,
	"server.host":              "0.0.0.0",
	"server.port":              8080,
	"server.read_timeout":      15 * time.Second,
	"server.write_timeout":     60 * time.Second,
	"server.idle_timeout":      60 * time.Second,
	"server.shutdown_timeout":  30 * time.Second,
	"server.request_timeout":   60 * time.Second,
	"analysis.max_concurrent":  4,
	"analysis.max_wait_time":   10 * time.Second,
	"rate.enabled":             true,
	"rate.requests_per_minute": 100,
	"rate.upload_limit":        10,
	"security.require_api_key": false,
	"logging.level":            "info",
	"logging.format":           "text",
}

// envKeys maps environment variables to config keys. Variables not listed
// here are ignored.
var envKeys = map[string]string{
	"DATA_DIR":                       "data.dir",
	"ESTATEKIT_DATA_DIR":             "data.dir",
	"DATA_MISSING_TOKEN":             "data.missing_token",
	"DATA_REQUIRED_COLUMNS":          "data.required_columns",
	"DATA_MAX_FILE_SIZE":             "data.max_file_size",
	"REPORT_FORMAT":                  "report.format",
	"REPORT_PERCENTILE":              "report.percentile",
	"SERVER_HOST":                    "server.host",
	"SERVER_PORT":                    "server.port",
	"SERVER_READ_TIMEOUT":            "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":           "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":            "server.idle_timeout",
	"SERVER_SHUTDOWN_TIMEOUT":        "server.shutdown_timeout",
	"SERVER_REQUEST_TIMEOUT":         "server.request_timeout",
	"ANALYSIS_MAX_CONCURRENT":        "analysis.max_concurrent",
	"ANALYSIS_MAX_WAIT_TIME":         "analysis.max_wait_time",
	"RATE_LIMIT_ENABLED":             "rate.enabled",
	"RATE_LIMIT_REQUESTS_PER_MINUTE": "rate.requests_per_minute",
	"RATE_LIMIT_UPLOAD":              "rate.upload_limit",
	"TRUSTED_PROXIES":                "security.trusted_proxies",
	"REQUIRE_API_KEY":                "security.require_api_key",
	"API_KEYS":                       "security.api_keys",
	"LOG_LEVEL":                      "logging.level",
	"LOG_FORMAT":                     "logging.format",
}

// envAliases are read only when their primary variable is unset.
var envAliases = map[string]string{
	"ESTATEKIT_DATA_DIR": "DATA_DIR",
}

// listKeys hold comma-separated values.
var listKeys = map[string]bool{
	"data.required_columns":    true,
	"security.trusted_proxies": true,
	"security.api_keys":        true,
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"data-dir":   "data.dir",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

// Load builds the configuration from defaults, then environment variables,
// then flags that were set explicitly. flags may be nil. The result is
// validated. Callers load .env files before calling Load.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagValue(flags)), nil); err != nil {
			return nil, fmt.Errorf("config flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envValue maps a known variable to its key. Empty values count as unset.
func envValue(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok || strings.TrimSpace(value) == "" {
		return "", nil
	}
	if primary, ok := envAliases[name]; ok && os.Getenv(primary) != "" {
		return "", nil
	}
	if listKeys[key] {
		items := splitList(value)
		if len(items) == 0 {
			return "", nil
		}
		return key, items
	}
	return key, strings.TrimSpace(value)
}

func flagValue(flags *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Data validation
	if strings.TrimSpace(c.Data.Dir) == "" {
		errs = append(errs, "DATA_DIR must not be empty")
	}
	if c.Data.MissingToken == "" {
		errs = append(errs, "DATA_MISSING_TOKEN must not be empty")
	}
	if c.Data.MaxFileSize <= 0 {
		errs = append(errs, "DATA_MAX_FILE_SIZE must be positive")
	}

	// Report validation
	if !slices.Contains(ReportFormats, strings.ToLower(c.Report.Format)) {
		errs = append(errs, fmt.Sprintf("REPORT_FORMAT (%q) must be one of: %s",
			c.Report.Format, strings.Join(ReportFormats, ", ")))
	}
	if c.Report.Percentile < 1 || c.Report.Percentile > 100 {
		errs = append(errs, fmt.Sprintf("REPORT_PERCENTILE (%d) must be 1-100", c.Report.Percentile))
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Analysis validation
	if c.Analysis.MaxConcurrent <= 0 {
		errs = append(errs, "ANALYSIS_MAX_CONCURRENT must be positive")
	}
	if c.Analysis.MaxWaitTime <= 0 {
		errs = append(errs, "ANALYSIS_MAX_WAIT_TIME must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}

	return nil
}

// ReportFormats lists the accepted REPORT_FORMAT values.
var ReportFormats = []string{"table", "markdown", "csv", "json", "yaml", "xlsx"}

// String returns a safe string representation of the config for logging.
// API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Data: {Dir: %q, MissingToken: %q, MaxFileSize: %d}, ",
		c.Data.Dir, c.Data.MissingToken, c.Data.MaxFileSize))
	b.WriteString(fmt.Sprintf("Report: {Format: %q, Percentile: %d}, ", c.Report.Format, c.Report.Percentile))
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Analysis: {MaxConcurrent: %d, MaxWaitTime: %s}, ",
		c.Analysis.MaxConcurrent, c.Analysis.MaxWaitTime))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: [MASKED x%d]}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
