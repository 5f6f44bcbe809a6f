package vault

import (
	"github.com/holiman/uint256"

	"reservevault/native/common"
)

// SyncConsumption applies a signed cumulative consumption update. Anyone may
// relay the message; authority comes from the consumption signer role.
func (e *Engine) SyncConsumption(msg ConsumptionSync, sig []byte) error {
	return e.execute(func() error {
		if err := common.Guard(e.state, ModuleName); err != nil {
			return err
		}
		if isZeroAddress(msg.Subject) {
			return ErrZeroAddress
		}
		digest, err := e.ConsumptionDigest(msg)
		if err != nil {
			return err
		}
		signer, err := e.verify(digest, msg.Deadline, sig, RoleConsumptionSigner)
		if err != nil {
			return err
		}
		cumulative := cloneInt(msg.CumulativeConsumed)
		account, exists, err := e.loadAccount(msg.Subject)
		if err != nil {
			return err
		}
		if cumulative.Lt(account.ReservedConsumed) {
			return ErrCumulativeDecreased
		}
		delta := new(uint256.Int).Sub(cumulative, account.ReservedConsumed)
		if delta.IsZero() {
			e.emit(ConsumptionSyncedEvent(msg.Subject, cumulative, delta, msg.WindowID, signer))
			return nil
		}
		if !exists || cumulative.Gt(account.ReservedTotal) {
			return ErrExceedsReserved
		}
		if err := e.settle(account); err != nil {
			return err
		}
		balance, err := subChecked(account.Balance, delta, ErrInsufficientBalance)
		if err != nil {
			return err
		}
		totals, err := e.loadTotals()
		if err != nil {
			return err
		}
		deposits, err := subChecked(totals.Deposits, delta, ErrInsufficientBalance)
		if err != nil {
			return err
		}
		consumed, err := addChecked(totals.ConsumedForRoyalty, delta)
		if err != nil {
			return err
		}
		account.Balance = balance
		account.ReservedConsumed = cumulative
		totals.Deposits = deposits
		totals.ConsumedForRoyalty = consumed
		if err := e.state.VaultAccountPut(msg.Subject, account); err != nil {
			return err
		}
		if err := e.state.VaultTotalsPut(totals); err != nil {
			return err
		}
		e.emit(ConsumptionSyncedEvent(msg.Subject, cumulative, delta, msg.WindowID, signer))
		return nil
	})
}

// ClaimRoyalty applies a signed cumulative royalty allocation, crediting the
// delta to the subject's claimable buffer. Total allocation can never exceed
// total consumption. The update stays open while the vault is paused.
func (e *Engine) ClaimRoyalty(msg RoyaltyAllocation, sig []byte) error {
	return e.execute(func() error {
		if isZeroAddress(msg.Subject) {
			return ErrZeroAddress
		}
		digest, err := e.RoyaltyDigest(msg)
		if err != nil {
			return err
		}
		signer, err := e.verify(digest, msg.Deadline, sig, RoleRoyaltySigner)
		if err != nil {
			return err
		}
		cumulative := cloneInt(msg.CumulativeAllocated)
		royalty, err := e.loadRoyalty(msg.Subject)
		if err != nil {
			return err
		}
		if cumulative.Lt(royalty.CumulativeAllocated) {
			return ErrCumulativeDecreased
		}
		delta := new(uint256.Int).Sub(cumulative, royalty.CumulativeAllocated)
		if delta.IsZero() {
			e.emit(RoyaltyAllocatedEvent(msg.Subject, cumulative, delta, msg.WindowID, signer))
			return nil
		}
		totals, err := e.loadTotals()
		if err != nil {
			return err
		}
		allocated, err := addChecked(totals.RoyaltyAllocated, delta)
		if err != nil {
			return err
		}
		if allocated.Gt(totals.ConsumedForRoyalty) {
			return ErrRoyaltyBudgetExceeded
		}
		buffer, err := addChecked(royalty.ClaimableBuffer, delta)
		if err != nil {
			return err
		}
		if cumulative.Gt(maxLedgerValue) {
			return ErrOverflow
		}
		royalty.ClaimableBuffer = buffer
		royalty.CumulativeAllocated = cumulative
		totals.RoyaltyAllocated = allocated
		if err := e.state.VaultRoyaltyPut(msg.Subject, royalty); err != nil {
			return err
		}
		if err := e.state.VaultTotalsPut(totals); err != nil {
			return err
		}
		e.emit(RoyaltyAllocatedEvent(msg.Subject, cumulative, delta, msg.WindowID, signer))
		return nil
	})
}
