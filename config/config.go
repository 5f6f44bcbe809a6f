package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the vaultd node configuration.
type Config struct {
	ListenAddress      string `toml:"ListenAddress"`
	DataDir            string `toml:"DataDir"`
	Storage            string `toml:"Storage"`
	ChainID            uint64 `toml:"ChainID"`
	VaultAddress       string `toml:"VaultAddress"`
	DistributorAddress string `toml:"DistributorAddress"`
	DepositAsset       string `toml:"DepositAsset"`
	RewardAsset        string `toml:"RewardAsset"`
	BootstrapFile      string `toml:"BootstrapFile"`
	Environment        string `toml:"Environment"`

	Log       LogConfig       `toml:"log"`
	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Audit     AuditConfig     `toml:"audit"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	HTTP      HTTPConfig      `toml:"http"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh node. The auth secret
// is left empty.
func Default() *Config {
	cfg := &Config{
		ListenAddress:      ":8547",
		DataDir:            "./vault-data",
		Storage:            StorageLevelDB,
		ChainID:            187001,
		VaultAddress:       "0x00000000000000000000000000000000000000ee",
		DistributorAddress: "0x00000000000000000000000000000000000000dd",
		DepositAsset:       "RSV",
		RewardAsset:        "RWD",
		Environment:        "local",
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Storage) == "" {
		c.Storage = StorageLevelDB
	}
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	c.DepositAsset = strings.ToUpper(strings.TrimSpace(c.DepositAsset))
	c.RewardAsset = strings.ToUpper(strings.TrimSpace(c.RewardAsset))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Auth.ClockSkew.Duration <= 0 {
		c.Auth.ClockSkew.Duration = defaultClockSkew
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 600
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 60
	}
	if c.HTTP.ReadHeaderTimeout.Duration <= 0 {
		c.HTTP.ReadHeaderTimeout.Duration = defaultReadHeaderTimeout
	}
	if c.HTTP.ShutdownTimeout.Duration <= 0 {
		c.HTTP.ShutdownTimeout.Duration = defaultShutdownTimeout
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "vaultd"
	}
	if strings.TrimSpace(c.Audit.DSN) == "" && strings.TrimSpace(c.DataDir) != "" {
		c.Audit.DSN = filepath.Join(c.DataDir, "audit.db")
	}
}

// createDefault creates and saves a default configuration file with a freshly
// generated API signing secret.
func createDefault(path string) (*Config, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}
	cfg := Default()
	cfg.Auth.HMACSecret = hex.EncodeToString(secret)
	cfg.Auth.Enabled = true
	cfg.Audit.DSN = filepath.Join(cfg.DataDir, "audit.db")

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
