package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"reservevault/config"
	"reservevault/crypto"
	"reservevault/native/vault"
)

// ApplyBootstrap initialises a fresh ledger from manifest in one atomic
// operation. It reports false without touching state when an administrator is
// already installed.
func (s *Service) ApplyBootstrap(ctx context.Context, manifest *config.Bootstrap) (bool, error) {
	if manifest == nil {
		return false, fmt.Errorf("core: bootstrap manifest required")
	}
	plan, err := planBootstrap(manifest)
	if err != nil {
		return false, err
	}
	var initialised bool
	err = s.View(func() error {
		params, err := s.vault.Params()
		if err != nil {
			return err
		}
		initialised = params.Admin != [20]byte{}
		return nil
	})
	if err != nil || initialised {
		return false, err
	}

	err = s.Execute(ctx, "bootstrap", func() error {
		return s.applyPlan(plan)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

type rolePlan struct {
	role   vault.Role
	member [20]byte
}

type rightPlan struct {
	id          [32]byte
	destination [20]byte
}

type epochPlan struct {
	epoch uint64
	root  [32]byte
}

type mintPlan struct {
	asset  string
	to     [20]byte
	amount *uint256.Int
}

type bootstrapPlan struct {
	admin    [20]byte
	treasury *[20]byte
	cap      *uint256.Int
	paused   bool
	roles    []rolePlan
	rights   []rightPlan
	epochs   []epochPlan
	mints    []mintPlan
}

func planBootstrap(m *config.Bootstrap) (*bootstrapPlan, error) {
	plan := &bootstrapPlan{paused: m.Paused}
	var err error
	if plan.admin, err = crypto.ParseIdentity(m.Admin); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if strings.TrimSpace(m.Treasury) != "" {
		treasury, err := crypto.ParseIdentity(m.Treasury)
		if err != nil {
			return nil, fmt.Errorf("bootstrap treasury: %w", err)
		}
		plan.treasury = &treasury
	}
	if strings.TrimSpace(m.DepositCap) != "" {
		if plan.cap, err = parseAmount(m.DepositCap); err != nil {
			return nil, fmt.Errorf("bootstrap deposit cap: %w", err)
		}
	}
	roleLists := []struct {
		role    vault.Role
		members []string
	}{
		{vault.RoleRelayer, m.Roles.Relayers},
		{vault.RoleApprovedDestination, m.Roles.Destinations},
		{vault.RoleConsumptionSigner, m.Roles.ConsumptionSigners},
		{vault.RoleRoyaltySigner, m.Roles.RoyaltySigners},
	}
	for _, list := range roleLists {
		for _, raw := range list.members {
			member, err := crypto.ParseIdentity(raw)
			if err != nil {
				return nil, fmt.Errorf("bootstrap %s %q: %w", list.role, raw, err)
			}
			plan.roles = append(plan.roles, rolePlan{role: list.role, member: member})
		}
	}
	for _, binding := range m.Rights {
		id, err := vault.ParseRightID(binding.RightID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap right %q: %w", binding.RightID, err)
		}
		dest, err := crypto.ParseIdentity(binding.Destination)
		if err != nil {
			return nil, fmt.Errorf("bootstrap right %q destination: %w", binding.RightID, err)
		}
		plan.rights = append(plan.rights, rightPlan{id: id, destination: dest})
	}
	for _, epoch := range m.Epochs {
		root, err := ParseHash(epoch.Root)
		if err != nil {
			return nil, fmt.Errorf("bootstrap epoch %d: %w", epoch.Epoch, err)
		}
		plan.epochs = append(plan.epochs, epochPlan{epoch: epoch.Epoch, root: root})
	}
	for _, mint := range m.Mints {
		to, err := crypto.ParseIdentity(mint.To)
		if err != nil {
			return nil, fmt.Errorf("bootstrap mint recipient: %w", err)
		}
		amount, err := parseAmount(mint.Amount)
		if err != nil {
			return nil, fmt.Errorf("bootstrap mint amount: %w", err)
		}
		plan.mints = append(plan.mints, mintPlan{asset: mint.Asset, to: to, amount: amount})
	}
	return plan, nil
}

func (s *Service) applyPlan(plan *bootstrapPlan) error {
	admin := plan.admin
	if err := s.vault.Bootstrap(admin); err != nil {
		return err
	}
	if plan.treasury != nil {
		if err := s.vault.SetTreasury(admin, *plan.treasury); err != nil {
			return err
		}
	}
	if plan.cap != nil && !plan.cap.IsZero() {
		if err := s.vault.SetDepositCap(admin, plan.cap); err != nil {
			return err
		}
	}
	for _, r := range plan.roles {
		if err := s.vault.SetRole(admin, r.role, r.member, true); err != nil && !errors.Is(err, vault.ErrNoChange) {
			return fmt.Errorf("grant %s: %w", r.role, err)
		}
	}
	for _, r := range plan.rights {
		if err := s.vault.BindRight(admin, r.id, r.destination); err != nil && !errors.Is(err, vault.ErrNoChange) {
			return fmt.Errorf("bind right: %w", err)
		}
	}
	for _, e := range plan.epochs {
		if err := s.distributor.SetRoot(admin, e.epoch, e.root); err != nil {
			return fmt.Errorf("epoch %d: %w", e.epoch, err)
		}
	}
	for _, m := range plan.mints {
		tok, err := s.Token(m.asset)
		if err != nil {
			return err
		}
		if err := tok.Mint(m.to, m.amount); err != nil {
			return fmt.Errorf("mint %s: %w", tok.Symbol(), err)
		}
	}
	if plan.paused {
		if err := s.vault.Pause(admin); err != nil {
			return err
		}
	}
	return nil
}

// RegisterVenues deploys every auction house listed in manifest.
func (s *Service) RegisterVenues(manifest *config.Bootstrap) error {
	if manifest == nil {
		return nil
	}
	for _, venue := range manifest.Venues {
		address, err := crypto.ParseIdentity(venue.Address)
		if err != nil {
			return fmt.Errorf("venue address: %w", err)
		}
		beneficiary, err := crypto.ParseIdentity(venue.Beneficiary)
		if err != nil {
			return fmt.Errorf("venue beneficiary: %w", err)
		}
		if _, err := s.RegisterAuctionHouse(address, beneficiary); err != nil {
			return fmt.Errorf("venue %s: %w", venue.Address, err)
		}
	}
	return nil
}

// ParseHash decodes a 0x-prefixed 32-byte hex value.
func ParseHash(raw string) ([32]byte, error) {
	var out [32]byte
	decoded, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil {
		return out, err
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

func parseAmount(raw string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}
