package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bootstrap is the one-time manifest applied to a fresh ledger: the
// administrator, role registries, right bindings and published epoch roots.
// Venues are registered on every start since they live outside the ledger.
type Bootstrap struct {
	Admin      string         `yaml:"admin"`
	Treasury   string         `yaml:"treasury"`
	DepositCap string         `yaml:"deposit_cap"`
	Paused     bool           `yaml:"paused"`
	Roles      BootstrapRoles `yaml:"roles"`
	Rights     []RightBinding `yaml:"rights"`
	Venues     []VenueSpec    `yaml:"venues"`
	Epochs     []EpochRoot    `yaml:"epochs"`
	Mints      []Mint         `yaml:"mints"`
}

// BootstrapRoles lists the initial members of each permission set.
type BootstrapRoles struct {
	Relayers           []string `yaml:"relayers"`
	Destinations       []string `yaml:"destinations"`
	ConsumptionSigners []string `yaml:"consumption_signers"`
	RoyaltySigners     []string `yaml:"royalty_signers"`
}

// RightBinding maps a 32-byte right identifier onto its venue.
type RightBinding struct {
	RightID     string `yaml:"right_id"`
	Destination string `yaml:"destination"`
}

// VenueSpec registers an in-process auction house at Address whose proceeds
// go to Beneficiary.
type VenueSpec struct {
	Address     string `yaml:"address"`
	Beneficiary string `yaml:"beneficiary"`
}

// EpochRoot publishes a distributor root.
type EpochRoot struct {
	Epoch uint64 `yaml:"epoch"`
	Root  string `yaml:"root"`
}

// Mint credits an asset balance. Intended for devnets only.
type Mint struct {
	Asset  string `yaml:"asset"`
	To     string `yaml:"to"`
	Amount string `yaml:"amount"`
}

// LoadBootstrap reads the YAML manifest at path.
func LoadBootstrap(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bootstrap: %w", err)
	}
	var manifest Bootstrap
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode bootstrap: %w", err)
	}
	if strings.TrimSpace(manifest.Admin) == "" {
		return nil, fmt.Errorf("bootstrap: admin required")
	}
	seen := make(map[uint64]struct{}, len(manifest.Epochs))
	for _, epoch := range manifest.Epochs {
		if _, dup := seen[epoch.Epoch]; dup {
			return nil, fmt.Errorf("bootstrap: epoch %d listed twice", epoch.Epoch)
		}
		seen[epoch.Epoch] = struct{}{}
	}
	return &manifest, nil
}
