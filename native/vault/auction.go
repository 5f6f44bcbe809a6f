package vault

import (
	"fmt"

	"github.com/holiman/uint256"

	"reservevault/native/common"
)

// Participate spends amount of the identity's reserve at the venue bound to
// rightID. Local effects are committed before the venue is called and the
// venue must pull exactly amount, otherwise everything is rolled back.
func (e *Engine) Participate(caller, identity [20]byte, amount *uint256.Int, rightID [32]byte) error {
	return e.execute(func() error {
		if err := common.Guard(e.state, ModuleName); err != nil {
			return err
		}
		relayer, err := e.hasRole(RoleRelayer, caller)
		if err != nil {
			return err
		}
		if !relayer {
			return ErrUnauthorized
		}
		if !isPositive(amount) {
			return ErrInvalidAmount
		}
		if err := e.requireAsset(); err != nil {
			return err
		}
		if err := e.requireHolder(identity); err != nil {
			return err
		}
		destination, bound, err := e.state.VaultRightGet(rightID)
		if err != nil {
			return err
		}
		if !bound || isZeroAddress(destination) {
			return ErrDestinationNotApproved
		}
		approved, err := e.hasRole(RoleApprovedDestination, destination)
		if err != nil {
			return err
		}
		if !approved {
			return ErrDestinationNotApproved
		}
		venue, ok := e.venues.Venue(destination)
		if !ok {
			return ErrVenueUnavailable
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
		if amount.Gt(account.Balance) {
			return ErrInsufficientBalance
		}
		totals, err := e.loadTotals()
		if err != nil {
			return err
		}
		deposits, err := subChecked(totals.Deposits, amount, ErrInsufficientBalance)
		if err != nil {
			return err
		}
		consumed, err := addChecked(totals.ConsumedForRoyalty, amount)
		if err != nil {
			return err
		}
		reservedConsumed, err := addChecked(account.ReservedConsumed, amount)
		if err != nil {
			return err
		}
		account.Balance = new(uint256.Int).Sub(account.Balance, amount)
		account.ReservedConsumed = reservedConsumed
		totals.Deposits = deposits
		totals.ConsumedForRoyalty = consumed
		if err := e.state.VaultAccountPut(identity, account); err != nil {
			return err
		}
		if err := e.state.VaultTotalsPut(totals); err != nil {
			return err
		}

		before, err := e.asset.Balance()
		if err != nil {
			return err
		}
		if err := e.asset.Approve(destination, new(uint256.Int)); err != nil {
			return err
		}
		if err := e.asset.Approve(destination, amount); err != nil {
			return err
		}
		if err := venue.Purchase(identity, rightID, amount); err != nil {
			return fmt.Errorf("vault: venue purchase: %w", err)
		}
		if err := e.asset.Approve(destination, new(uint256.Int)); err != nil {
			return err
		}
		after, err := e.asset.Balance()
		if err != nil {
			return err
		}
		if after.Gt(before) {
			return ErrPullMismatch
		}
		if pulled := new(uint256.Int).Sub(before, after); !pulled.Eq(amount) {
			return fmt.Errorf("%w: pulled %s, expected %s", ErrPullMismatch, pulled.Dec(), amount.Dec())
		}
		e.emit(AuctionParticipatedEvent(identity, rightID, destination, amount))
		return nil
	})
}
