package vault

import "github.com/holiman/uint256"

// ExcessSweepable returns the live custody holdings above what the vault owes:
// every deposit plus the consumed value not yet paid out as royalty. Holdings
// are read on every call so external top-ups become sweepable immediately.
func (e *Engine) ExcessSweepable() (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireAsset(); err != nil {
		return nil, err
	}
	totals, err := e.loadTotals()
	if err != nil {
		return nil, err
	}
	holdings, err := e.asset.Balance()
	if err != nil {
		return nil, err
	}
	reservedForRoyalties := subFloor(totals.ConsumedForRoyalty, totals.RoyaltyPaid)
	minRequired := new(uint256.Int).Add(cloneInt(totals.Deposits), reservedForRoyalties)
	return subFloor(holdings, minRequired), nil
}

// SweepExcess transfers up to the sweepable excess to the treasury.
func (e *Engine) SweepExcess(caller [20]byte, amount *uint256.Int) error {
	return e.execute(func() error {
		params, err := e.requireAdmin(caller)
		if err != nil {
			return err
		}
		if !isPositive(amount) {
			return ErrInvalidAmount
		}
		if isZeroAddress(params.Treasury) {
			return ErrTreasuryNotSet
		}
		excess, err := e.ExcessSweepable()
		if err != nil {
			return err
		}
		if amount.Gt(excess) {
			return ErrInsufficientExcess
		}
		if err := e.asset.TransferOut(params.Treasury, amount); err != nil {
			return err
		}
		e.emit(ExcessSweptEvent(params.Treasury, amount))
		return nil
	})
}

// WithdrawRoyalty was the separate royalty payout path. The claimable buffer
// is now paid through Withdraw and this entry point always fails.
func (e *Engine) WithdrawRoyalty([20]byte, *uint256.Int) error {
	return ErrDeprecated
}
