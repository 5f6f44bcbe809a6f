package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	StorageLevelDB = "leveldb"
	StorageBolt    = "bolt"
	StorageMemory  = "memory"

	defaultClockSkew         = 2 * time.Minute
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Duration wraps time.Duration so it can be written as "5s" in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses human readable duration strings.
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration in time.Duration notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// AuthConfig configures bearer-token authentication of API callers. The
// token subject is the caller identity.
type AuthConfig struct {
	Enabled    bool     `toml:"Enabled"`
	HMACSecret string   `toml:"HMACSecret"`
	Issuer     string   `toml:"Issuer"`
	Audience   string   `toml:"Audience"`
	ClockSkew  Duration `toml:"ClockSkew"`
}

// RateLimitConfig bounds requests per client.
type RateLimitConfig struct {
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
}

// AuditConfig selects the audit journal database. Postgres URLs use the
// postgres driver; anything else is a sqlite path.
type AuditConfig struct {
	DSN string `toml:"DSN"`
}

// TelemetryConfig configures OTLP export.
type TelemetryConfig struct {
	Enabled     bool   `toml:"Enabled"`
	ServiceName string `toml:"ServiceName"`
	Endpoint    string `toml:"Endpoint"`
	Insecure    bool   `toml:"Insecure"`
	Headers     string `toml:"Headers"`
	Metrics     bool   `toml:"Metrics"`
	Traces      bool   `toml:"Traces"`
}

// HTTPConfig tunes the API server.
type HTTPConfig struct {
	ReadHeaderTimeout Duration `toml:"ReadHeaderTimeout"`
	ShutdownTimeout   Duration `toml:"ShutdownTimeout"`
	LogRequests       bool     `toml:"LogRequests"`
}
