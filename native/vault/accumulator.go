package vault

import "github.com/holiman/uint256"

// Settle integrates the account's available reserve over the time elapsed
// since its last update and returns the new (lastUpdate, accumulator) pair.
// The first touch only records now. Clocks that move backwards contribute
// nothing and leave the previous timestamp in place.
func Settle(account *Account, now uint64) (uint64, *uint256.Int, error) {
	if account == nil {
		return now, new(uint256.Int), nil
	}
	accumulated := cloneInt(account.AccumulatedReservedSeconds)
	if account.LastUpdate == 0 {
		return now, accumulated, nil
	}
	if now <= account.LastUpdate {
		return account.LastUpdate, accumulated, nil
	}
	elapsed := uint256.NewInt(now - account.LastUpdate)
	weighted, overflow := new(uint256.Int).MulOverflow(account.ReservedAvail(), elapsed)
	if overflow {
		return 0, nil, ErrOverflow
	}
	next, overflow := new(uint256.Int).AddOverflow(accumulated, weighted)
	if overflow {
		return 0, nil, ErrOverflow
	}
	return now, next, nil
}

// Preview evaluates Settle without persisting anything. Overflow saturates at
// the maximum representable value since views never fail.
func Preview(account *Account, now uint64) *uint256.Int {
	_, accumulated, err := Settle(account, now)
	if err != nil {
		return new(uint256.Int).SetAllOne()
	}
	return accumulated
}

func (e *Engine) settle(account *Account) error {
	lastUpdate, accumulated, err := Settle(account, e.nowUnix())
	if err != nil {
		return err
	}
	account.LastUpdate = lastUpdate
	account.AccumulatedReservedSeconds = accumulated
	return nil
}
