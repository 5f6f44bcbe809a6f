package vault

import "github.com/holiman/uint256"

// ModuleName identifies the vault in pause switches and event types.
const ModuleName = "vault"

// Account is the per-identity custody record.
type Account struct {
	Balance                    *uint256.Int
	ReservedTotal              *uint256.Int
	ReservedConsumed           *uint256.Int
	LastUpdate                 uint64
	AccumulatedReservedSeconds *uint256.Int
}

// NewAccount returns a zeroed account record.
func NewAccount() *Account {
	return &Account{
		Balance:                    new(uint256.Int),
		ReservedTotal:              new(uint256.Int),
		ReservedConsumed:           new(uint256.Int),
		AccumulatedReservedSeconds: new(uint256.Int),
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Balance = cloneInt(a.Balance)
	clone.ReservedTotal = cloneInt(a.ReservedTotal)
	clone.ReservedConsumed = cloneInt(a.ReservedConsumed)
	clone.AccumulatedReservedSeconds = cloneInt(a.AccumulatedReservedSeconds)
	return &clone
}

// ReservedAvail is the reserved amount not yet consumed.
func (a *Account) ReservedAvail() *uint256.Int {
	return subFloor(a.ReservedTotal, a.ReservedConsumed)
}

// Withdrawable is the deposited balance not covered by the available reserve.
func (a *Account) Withdrawable() *uint256.Int {
	return subFloor(a.Balance, a.ReservedAvail())
}

func (a *Account) normalize() *Account {
	if a == nil {
		return NewAccount()
	}
	a.Balance = cloneInt(a.Balance)
	a.ReservedTotal = cloneInt(a.ReservedTotal)
	a.ReservedConsumed = cloneInt(a.ReservedConsumed)
	a.AccumulatedReservedSeconds = cloneInt(a.AccumulatedReservedSeconds)
	return a
}

// Totals holds the global counters.
type Totals struct {
	Deposits           *uint256.Int
	ConsumedForRoyalty *uint256.Int
	RoyaltyAllocated   *uint256.Int
	RoyaltyPaid        *uint256.Int
}

// NewTotals returns zeroed global counters.
func NewTotals() *Totals {
	return &Totals{
		Deposits:           new(uint256.Int),
		ConsumedForRoyalty: new(uint256.Int),
		RoyaltyAllocated:   new(uint256.Int),
		RoyaltyPaid:        new(uint256.Int),
	}
}

// Clone returns a deep copy of the counters.
func (t *Totals) Clone() *Totals {
	if t == nil {
		return nil
	}
	return &Totals{
		Deposits:           cloneInt(t.Deposits),
		ConsumedForRoyalty: cloneInt(t.ConsumedForRoyalty),
		RoyaltyAllocated:   cloneInt(t.RoyaltyAllocated),
		RoyaltyPaid:        cloneInt(t.RoyaltyPaid),
	}
}

// RoyaltyAccount tracks royalty entitlement for one identity. The buffer
// shrinks on withdrawal while CumulativeAllocated only grows.
type RoyaltyAccount struct {
	ClaimableBuffer     *uint256.Int
	CumulativeAllocated *uint256.Int
}

// Clone returns a deep copy of the royalty account.
func (r *RoyaltyAccount) Clone() *RoyaltyAccount {
	if r == nil {
		return nil
	}
	return &RoyaltyAccount{
		ClaimableBuffer:     cloneInt(r.ClaimableBuffer),
		CumulativeAllocated: cloneInt(r.CumulativeAllocated),
	}
}

// Params carries administrator-controlled configuration.
type Params struct {
	Admin      [20]byte
	Treasury   [20]byte
	DepositCap *uint256.Int
}

// Clone returns a deep copy of the parameters.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	clone := *p
	clone.DepositCap = cloneInt(p.DepositCap)
	return &clone
}

// Role names a keyed permission set owned by the administrator.
type Role uint8

const (
	RoleRelayer Role = iota + 1
	RoleApprovedDestination
	RoleConsumptionSigner
	RoleRoyaltySigner
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleRelayer, RoleApprovedDestination, RoleConsumptionSigner, RoleRoyaltySigner:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case RoleRelayer:
		return "relayer"
	case RoleApprovedDestination:
		return "destination"
	case RoleConsumptionSigner:
		return "consumption-signer"
	case RoleRoyaltySigner:
		return "royalty-signer"
	default:
		return "unknown"
	}
}

// ParseRole maps the textual role name back to a Role.
func ParseRole(name string) (Role, bool) {
	for _, role := range []Role{RoleRelayer, RoleApprovedDestination, RoleConsumptionSigner, RoleRoyaltySigner} {
		if role.String() == name {
			return role, true
		}
	}
	return 0, false
}

// AccountView is the read-only projection returned by Engine.Account.
type AccountView struct {
	Identity                   [20]byte
	Exists                     bool
	Balance                    *uint256.Int
	ReservedTotal              *uint256.Int
	ReservedConsumed           *uint256.Int
	ReservedAvail              *uint256.Int
	Withdrawable               *uint256.Int
	ClaimableBuffer            *uint256.Int
	CumulativeRoyalty          *uint256.Int
	Available                  *uint256.Int
	LastUpdate                 uint64
	AccumulatedReservedSeconds *uint256.Int
}
