package config

import (
	"fmt"
	"strings"

	"reservevault/crypto"
)

// Validate rejects configurations the node cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	switch c.Storage {
	case StorageLevelDB, StorageBolt:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("config: DataDir required for %s storage", c.Storage)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage)
	}
	if c.ChainID == 0 {
		return fmt.Errorf("config: ChainID must be non-zero")
	}
	vaultID, err := crypto.ParseIdentity(c.VaultAddress)
	if err != nil {
		return fmt.Errorf("config: VaultAddress: %w", err)
	}
	poolID, err := crypto.ParseIdentity(c.DistributorAddress)
	if err != nil {
		return fmt.Errorf("config: DistributorAddress: %w", err)
	}
	if vaultID == ([20]byte{}) || poolID == ([20]byte{}) {
		return fmt.Errorf("config: vault and distributor addresses must be non-zero")
	}
	if vaultID == poolID {
		return fmt.Errorf("config: vault and distributor must hold separate custody")
	}
	if c.DepositAsset == "" || c.RewardAsset == "" {
		return fmt.Errorf("config: DepositAsset and RewardAsset required")
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.HMACSecret) == "" {
		return fmt.Errorf("config: auth enabled without HMACSecret")
	}
	return nil
}

// VaultIdentity returns the parsed vault custody identity.
func (c *Config) VaultIdentity() [20]byte {
	id, _ := crypto.ParseIdentity(c.VaultAddress)
	return id
}

// DistributorIdentity returns the parsed reward pool identity.
func (c *Config) DistributorIdentity() [20]byte {
	id, _ := crypto.ParseIdentity(c.DistributorAddress)
	return id
}
