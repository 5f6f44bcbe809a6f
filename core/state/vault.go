package state

import (
	"math/big"

	"reservevault/native/vault"
)

var (
	vaultAccountPrefix = []byte("vault/account/")
	vaultTotalsKey     = kvKey([]byte("vault/totals"))
	vaultRoyaltyPrefix = []byte("vault/royalty/")
	vaultParamsKey     = kvKey([]byte("vault/params"))
	vaultRolePrefix    = []byte("vault/role/")
	vaultRightPrefix   = []byte("vault/right/")
	pausePrefix        = []byte("pause/")
)

type storedVaultAccount struct {
	Balance          *big.Int
	ReservedTotal    *big.Int
	ReservedConsumed *big.Int
	LastUpdate       uint64
	Accumulated      *big.Int
}

type storedVaultTotals struct {
	Deposits           *big.Int
	ConsumedForRoyalty *big.Int
	RoyaltyAllocated   *big.Int
	RoyaltyPaid        *big.Int
}

type storedRoyaltyAccount struct {
	ClaimableBuffer     *big.Int
	CumulativeAllocated *big.Int
}

type storedVaultParams struct {
	Admin      [20]byte
	Treasury   [20]byte
	DepositCap *big.Int
}

// VaultAccountGet loads the custody record for id.
func (m *Manager) VaultAccountGet(id [20]byte) (*vault.Account, bool, error) {
	var stored storedVaultAccount
	ok, err := m.getRLP(kvKey(vaultAccountPrefix, id[:]), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	account := &vault.Account{LastUpdate: stored.LastUpdate}
	if account.Balance, err = fromBig(stored.Balance); err != nil {
		return nil, false, err
	}
	if account.ReservedTotal, err = fromBig(stored.ReservedTotal); err != nil {
		return nil, false, err
	}
	if account.ReservedConsumed, err = fromBig(stored.ReservedConsumed); err != nil {
		return nil, false, err
	}
	if account.AccumulatedReservedSeconds, err = fromBig(stored.Accumulated); err != nil {
		return nil, false, err
	}
	return account, true, nil
}

// VaultAccountPut stores the custody record for id.
func (m *Manager) VaultAccountPut(id [20]byte, account *vault.Account) error {
	if account == nil {
		account = vault.NewAccount()
	}
	return m.putRLP(kvKey(vaultAccountPrefix, id[:]), &storedVaultAccount{
		Balance:          toBig(account.Balance),
		ReservedTotal:    toBig(account.ReservedTotal),
		ReservedConsumed: toBig(account.ReservedConsumed),
		LastUpdate:       account.LastUpdate,
		Accumulated:      toBig(account.AccumulatedReservedSeconds),
	})
}

// VaultTotalsGet loads the global counters, zeroed when never written.
func (m *Manager) VaultTotalsGet() (*vault.Totals, error) {
	var stored storedVaultTotals
	ok, err := m.getRLP(vaultTotalsKey, &stored)
	if err != nil {
		return nil, err
	}
	totals := vault.NewTotals()
	if !ok {
		return totals, nil
	}
	if totals.Deposits, err = fromBig(stored.Deposits); err != nil {
		return nil, err
	}
	if totals.ConsumedForRoyalty, err = fromBig(stored.ConsumedForRoyalty); err != nil {
		return nil, err
	}
	if totals.RoyaltyAllocated, err = fromBig(stored.RoyaltyAllocated); err != nil {
		return nil, err
	}
	if totals.RoyaltyPaid, err = fromBig(stored.RoyaltyPaid); err != nil {
		return nil, err
	}
	return totals, nil
}

// VaultTotalsPut stores the global counters.
func (m *Manager) VaultTotalsPut(totals *vault.Totals) error {
	if totals == nil {
		totals = vault.NewTotals()
	}
	return m.putRLP(vaultTotalsKey, &storedVaultTotals{
		Deposits:           toBig(totals.Deposits),
		ConsumedForRoyalty: toBig(totals.ConsumedForRoyalty),
		RoyaltyAllocated:   toBig(totals.RoyaltyAllocated),
		RoyaltyPaid:        toBig(totals.RoyaltyPaid),
	})
}

// VaultRoyaltyGet loads the royalty record for id. Absent records are nil.
func (m *Manager) VaultRoyaltyGet(id [20]byte) (*vault.RoyaltyAccount, error) {
	var stored storedRoyaltyAccount
	ok, err := m.getRLP(kvKey(vaultRoyaltyPrefix, id[:]), &stored)
	if err != nil || !ok {
		return nil, err
	}
	account := &vault.RoyaltyAccount{}
	if account.ClaimableBuffer, err = fromBig(stored.ClaimableBuffer); err != nil {
		return nil, err
	}
	if account.CumulativeAllocated, err = fromBig(stored.CumulativeAllocated); err != nil {
		return nil, err
	}
	return account, nil
}

// VaultRoyaltyPut stores the royalty record for id.
func (m *Manager) VaultRoyaltyPut(id [20]byte, account *vault.RoyaltyAccount) error {
	stored := &storedRoyaltyAccount{ClaimableBuffer: new(big.Int), CumulativeAllocated: new(big.Int)}
	if account != nil {
		stored.ClaimableBuffer = toBig(account.ClaimableBuffer)
		stored.CumulativeAllocated = toBig(account.CumulativeAllocated)
	}
	return m.putRLP(kvKey(vaultRoyaltyPrefix, id[:]), stored)
}

// VaultParamsGet loads the administrator settings. Absent settings are nil.
func (m *Manager) VaultParamsGet() (*vault.Params, error) {
	var stored storedVaultParams
	ok, err := m.getRLP(vaultParamsKey, &stored)
	if err != nil || !ok {
		return nil, err
	}
	params := &vault.Params{Admin: stored.Admin, Treasury: stored.Treasury}
	if params.DepositCap, err = fromBig(stored.DepositCap); err != nil {
		return nil, err
	}
	return params, nil
}

// VaultParamsPut stores the administrator settings.
func (m *Manager) VaultParamsPut(params *vault.Params) error {
	if params == nil {
		params = &vault.Params{}
	}
	return m.putRLP(vaultParamsKey, &storedVaultParams{
		Admin:      params.Admin,
		Treasury:   params.Treasury,
		DepositCap: toBig(params.DepositCap),
	})
}

// VaultRoleHas reports whether member belongs to role.
func (m *Manager) VaultRoleHas(role vault.Role, member [20]byte) (bool, error) {
	return m.flag(kvKey(vaultRolePrefix, []byte{byte(role)}, member[:]))
}

// VaultRoleSet adds or removes member from role.
func (m *Manager) VaultRoleSet(role vault.Role, member [20]byte, enabled bool) error {
	m.setFlag(kvKey(vaultRolePrefix, []byte{byte(role)}, member[:]), enabled)
	return nil
}

// VaultRightGet returns the destination bound to rightID.
func (m *Manager) VaultRightGet(rightID [32]byte) ([20]byte, bool, error) {
	var destination [20]byte
	raw, ok, err := m.get(kvKey(vaultRightPrefix, rightID[:]))
	if err != nil || !ok {
		return destination, false, err
	}
	copy(destination[:], raw)
	return destination, true, nil
}

// VaultRightPut binds rightID to destination.
func (m *Manager) VaultRightPut(rightID [32]byte, destination [20]byte) error {
	m.set(kvKey(vaultRightPrefix, rightID[:]), destination[:])
	return nil
}

// IsPaused reports whether module is paused. Read failures fail closed.
func (m *Manager) IsPaused(module string) bool {
	paused, err := m.flag(kvKey(pausePrefix, []byte(module)))
	if err != nil {
		return true
	}
	return paused
}

// SetModulePaused toggles the pause switch for module.
func (m *Manager) SetModulePaused(module string, paused bool) error {
	m.setFlag(kvKey(pausePrefix, []byte(module)), paused)
	return nil
}
