package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vaultd.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8547", cfg.ListenAddress)
	require.True(t, cfg.Auth.Enabled)
	require.Len(t, cfg.Auth.HMACSecret, 64)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Auth.HMACSecret, reloaded.Auth.HMACSecret)
	require.Equal(t, 2*time.Minute, reloaded.Auth.ClockSkew.Duration)
	require.NotEqual(t, [20]byte{}, reloaded.VaultIdentity())
}

func TestLoadParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	contents := `ListenAddress = "127.0.0.1:9000"
DataDir = "./data"
Storage = "Bolt"
ChainID = 5
VaultAddress = "0x00000000000000000000000000000000000000aa"
DistributorAddress = "0x00000000000000000000000000000000000000bb"
DepositAsset = " rsv "
RewardAsset = "rwd"

[log]
Level = "debug"
File = "/var/log/vaultd.log"

[auth]
Enabled = true
HMACSecret = "secret"
ClockSkew = "30s"

[rate_limit]
RequestsPerMinute = 120.5
Burst = 7

[http]
ShutdownTimeout = "3s"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, StorageBolt, cfg.Storage)
	require.Equal(t, uint64(5), cfg.ChainID)
	require.Equal(t, "RSV", cfg.DepositAsset)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 30*time.Second, cfg.Auth.ClockSkew.Duration)
	require.Equal(t, 120.5, cfg.RateLimit.RequestsPerMinute)
	require.Equal(t, 7, cfg.RateLimit.Burst)
	require.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout.Duration)
	require.Equal(t, defaultReadHeaderTimeout, cfg.HTTP.ReadHeaderTimeout.Duration)
	require.Equal(t, "vaultd", cfg.Telemetry.ServiceName)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	require.NoError(t, os.WriteFile(path, []byte("ListenAddress = \":1\"\nBogus = 1\n"), 0o600))
	_, err := Load(path)
	require.ErrorContains(t, err, "Bogus")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"storage":      func(c *Config) { c.Storage = "rocks" },
		"chain":        func(c *Config) { c.ChainID = 0 },
		"vault":        func(c *Config) { c.VaultAddress = "nope" },
		"zero":         func(c *Config) { c.DistributorAddress = "0x0000000000000000000000000000000000000000" },
		"shared":       func(c *Config) { c.DistributorAddress = c.VaultAddress },
		"asset":        func(c *Config) { c.RewardAsset = "" },
		"secret":       func(c *Config) { c.Auth.Enabled = true },
		"listen":       func(c *Config) { c.ListenAddress = " " },
		"leveldb-path": func(c *Config) { c.DataDir = "" },
	}
	require.NoError(t, Default().Validate())
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		require.Error(t, cfg.Validate(), name)
	}
	mem := Default()
	mem.Storage = StorageMemory
	mem.DataDir = ""
	require.NoError(t, mem.Validate())
}

func TestLoadBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	manifest := `admin: "0x0000000000000000000000000000000000000001"
treasury: "0x000000000000000000000000000000000000000d"
deposit_cap: "1000"
roles:
  relayers: ["0x000000000000000000000000000000000000000c"]
  consumption_signers: ["0x00000000000000000000000000000000000000c5"]
rights:
  - right_id: "0x01"
    destination: "0x00000000000000000000000000000000000000a0"
venues:
  - address: "0x00000000000000000000000000000000000000a0"
    beneficiary: "0x00000000000000000000000000000000000000b0"
epochs:
  - epoch: 1
    root: "0xabc"
mints:
  - asset: RSV
    to: "0x000000000000000000000000000000000000000a"
    amount: "500"
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))
	b, err := LoadBootstrap(path)
	require.NoError(t, err)
	require.Equal(t, "1000", b.DepositCap)
	require.Len(t, b.Roles.Relayers, 1)
	require.Len(t, b.Rights, 1)
	require.Equal(t, uint64(1), b.Epochs[0].Epoch)
	require.Equal(t, "500", b.Mints[0].Amount)

	dup := strings.Replace(manifest, "mints:", "  - epoch: 1\n    root: \"0xdef\"\nmints:", 1)
	require.NoError(t, os.WriteFile(path, []byte(dup), 0o600))
	_, err = LoadBootstrap(path)
	require.ErrorContains(t, err, "listed twice")

	require.NoError(t, os.WriteFile(path, []byte("admin: x\nunknown: 1\n"), 0o600))
	_, err = LoadBootstrap(path)
	require.Error(t, err)
}
