package vault

import (
	"github.com/holiman/uint256"

	"reservevault/native/common"
)

// Deposit moves amount of the custody asset into the vault. New deposits are
// reserved by default so withdrawable is unchanged.
func (e *Engine) Deposit(identity [20]byte, amount *uint256.Int) error {
	return e.execute(func() error {
		if err := common.Guard(e.state, ModuleName); err != nil {
			return err
		}
		if !isPositive(amount) {
			return ErrInvalidAmount
		}
		if isZeroAddress(identity) {
			return ErrZeroAddress
		}
		if err := e.requireAsset(); err != nil {
			return err
		}
		if err := e.requireHolder(identity); err != nil {
			return err
		}
		account, _, err := e.loadAccount(identity)
		if err != nil {
			return err
		}
		if err := e.settle(account); err != nil {
			return err
		}
		params, err := e.loadParams()
		if err != nil {
			return err
		}
		balance, err := addChecked(account.Balance, amount)
		if err != nil {
			return err
		}
		if isPositive(params.DepositCap) && balance.Gt(params.DepositCap) {
			return ErrDepositCapExceeded
		}
		reserved, err := addChecked(account.ReservedTotal, amount)
		if err != nil {
			return err
		}
		totals, err := e.loadTotals()
		if err != nil {
			return err
		}
		deposits, err := addChecked(totals.Deposits, amount)
		if err != nil {
			return err
		}
		account.Balance = balance
		account.ReservedTotal = reserved
		totals.Deposits = deposits
		if err := e.state.VaultAccountPut(identity, account); err != nil {
			return err
		}
		if err := e.state.VaultTotalsPut(totals); err != nil {
			return err
		}
		if err := e.asset.TransferIn(identity, amount); err != nil {
			return err
		}
		e.emit(DepositedEvent(identity, amount, balance, reserved))
		return nil
	})
}

// Withdraw pays amount out of the royalty buffer first and the withdrawable
// deposit second. It remains available while the vault is paused.
func (e *Engine) Withdraw(identity [20]byte, amount *uint256.Int) error {
	return e.execute(func() error {
		if !isPositive(amount) {
			return ErrInvalidAmount
		}
		if err := e.requireAsset(); err != nil {
			return err
		}
		if err := e.requireHolder(identity); err != nil {
			return err
		}
		account, exists, err := e.loadAccount(identity)
		if err != nil {
			return err
		}
		if exists {
			if err := e.settle(account); err != nil {
				return err
			}
		}
		royalty, err := e.loadRoyalty(identity)
		if err != nil {
			return err
		}
		available := new(uint256.Int).Add(account.Withdrawable(), royalty.ClaimableBuffer)
		if amount.Gt(available) {
			return ErrInsufficientWithdrawable
		}
		fromRoyalty := minInt(amount, royalty.ClaimableBuffer)
		fromDeposit := new(uint256.Int).Sub(amount, fromRoyalty)

		totals, err := e.loadTotals()
		if err != nil {
			return err
		}
		if !fromRoyalty.IsZero() {
			royalty.ClaimableBuffer = new(uint256.Int).Sub(royalty.ClaimableBuffer, fromRoyalty)
			paid, err := addChecked(totals.RoyaltyPaid, fromRoyalty)
			if err != nil {
				return err
			}
			totals.RoyaltyPaid = paid
			if err := e.state.VaultRoyaltyPut(identity, royalty); err != nil {
				return err
			}
		}
		if !fromDeposit.IsZero() {
			balance, err := subChecked(account.Balance, fromDeposit, ErrInsufficientBalance)
			if err != nil {
				return err
			}
			deposits, err := subChecked(totals.Deposits, fromDeposit, ErrInsufficientBalance)
			if err != nil {
				return err
			}
			account.Balance = balance
			totals.Deposits = deposits
		}
		if exists {
			if err := e.state.VaultAccountPut(identity, account); err != nil {
				return err
			}
		}
		if err := e.state.VaultTotalsPut(totals); err != nil {
			return err
		}
		if err := e.asset.TransferOut(identity, amount); err != nil {
			return err
		}
		e.emit(WithdrawnEvent(identity, fromRoyalty, fromDeposit))
		return nil
	})
}

// IncreaseReserved moves amount of the withdrawable balance into reserve.
func (e *Engine) IncreaseReserved(identity [20]byte, amount *uint256.Int) error {
	return e.execute(func() error {
		if err := common.Guard(e.state, ModuleName); err != nil {
			return err
		}
		if !isPositive(amount) {
			return ErrInvalidAmount
		}
		account, exists, err := e.loadAccount(identity)
		if err != nil {
			return err
		}
		if !exists {
			return ErrInsufficientWithdrawable
		}
		if err := e.settle(account); err != nil {
			return err
		}
		if amount.Gt(account.Withdrawable()) {
			return ErrInsufficientWithdrawable
		}
		reserved, err := addChecked(account.ReservedTotal, amount)
		if err != nil {
			return err
		}
		account.ReservedTotal = reserved
		if err := e.state.VaultAccountPut(identity, account); err != nil {
			return err
		}
		e.emit(ReserveChangedEvent(EventTypeReserveIncreased, identity, amount, reserved))
		return nil
	})
}

// DecreaseReserved releases amount of the unconsumed reserve back to the
// withdrawable balance.
func (e *Engine) DecreaseReserved(identity [20]byte, amount *uint256.Int) error {
	return e.execute(func() error {
		if !isPositive(amount) {
			return ErrInvalidAmount
		}
		account, exists, err := e.loadAccount(identity)
		if err != nil {
			return err
		}
		if !exists {
			return ErrInsufficientReserve
		}
		if err := e.settle(account); err != nil {
			return err
		}
		if amount.Gt(account.ReservedAvail()) {
			return ErrInsufficientReserve
		}
		account.ReservedTotal = new(uint256.Int).Sub(account.ReservedTotal, amount)
		if err := e.state.VaultAccountPut(identity, account); err != nil {
			return err
		}
		e.emit(ReserveChangedEvent(EventTypeReserveDecreased, identity, amount, account.ReservedTotal))
		return nil
	})
}
