package vault

import "github.com/holiman/uint256"

// Account returns the identity's ledger record with derived quantities and the
// accumulator previewed to the current time.
func (e *Engine) Account(identity [20]byte) (*AccountView, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	account, exists, err := e.loadAccount(identity)
	if err != nil {
		return nil, err
	}
	royalty, err := e.loadRoyalty(identity)
	if err != nil {
		return nil, err
	}
	withdrawable := account.Withdrawable()
	view := &AccountView{
		Identity:                   identity,
		Exists:                     exists,
		Balance:                    cloneInt(account.Balance),
		ReservedTotal:              cloneInt(account.ReservedTotal),
		ReservedConsumed:           cloneInt(account.ReservedConsumed),
		ReservedAvail:              account.ReservedAvail(),
		Withdrawable:               withdrawable,
		ClaimableBuffer:            cloneInt(royalty.ClaimableBuffer),
		CumulativeRoyalty:          cloneInt(royalty.CumulativeAllocated),
		Available:                  new(uint256.Int).Add(withdrawable, royalty.ClaimableBuffer),
		LastUpdate:                 account.LastUpdate,
		AccumulatedReservedSeconds: cloneInt(account.AccumulatedReservedSeconds),
	}
	if exists {
		view.AccumulatedReservedSeconds = Preview(account, e.nowUnix())
	}
	return view, nil
}

// Totals returns the global counters.
func (e *Engine) Totals() (*Totals, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.loadTotals()
}

// Royalty returns the identity's royalty record.
func (e *Engine) Royalty(identity [20]byte) (*RoyaltyAccount, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.loadRoyalty(identity)
}

// Params returns the administrator settings.
func (e *Engine) Params() (*Params, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.loadParams()
}

// HasRole reports role membership.
func (e *Engine) HasRole(role Role, member [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	return e.hasRole(role, member)
}

// RightDestination returns the destination bound to rightID.
func (e *Engine) RightDestination(rightID [32]byte) ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, ErrNilState
	}
	return e.state.VaultRightGet(rightID)
}

// Paused reports whether the vault's inflow operations are paused.
func (e *Engine) Paused() bool {
	if e == nil || e.state == nil {
		return false
	}
	return e.state.IsPaused(ModuleName)
}
