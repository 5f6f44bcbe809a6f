package vault_test

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"reservevault/native/bank"
	"reservevault/native/common"
	"reservevault/native/vault"
)

func TestDepositDecreaseWithdrawScenario(t *testing.T) {
	f := newFixture(t)
	f.setCap(1000)

	require.NoError(t, f.engine.Deposit(f.alice, u(100)))
	view := f.account(f.alice)
	require.True(t, view.Exists)
	require.Equal(t, uint64(100), view.Balance.Uint64())
	require.Equal(t, uint64(100), view.ReservedTotal.Uint64())
	require.True(t, view.ReservedConsumed.IsZero())
	require.True(t, view.Withdrawable.IsZero())

	require.NoError(t, f.engine.DecreaseReserved(f.alice, u(50)))
	require.Equal(t, uint64(50), f.account(f.alice).Withdrawable.Uint64())

	require.NoError(t, f.engine.Withdraw(f.alice, u(50)))
	view = f.account(f.alice)
	require.Equal(t, uint64(50), view.Balance.Uint64())
	require.Equal(t, uint64(50), view.ReservedTotal.Uint64())
	require.Equal(t, uint64(50), f.totals().Deposits.Uint64())
	require.Equal(t, uint64(9_950), f.tokenBalance(f.alice))
	require.Equal(t, uint64(50), f.tokenBalance(f.vaultAddr))

	require.Equal(t, []string{
		vault.EventTypeParamsUpdated,
		vault.EventTypeDeposited,
		vault.EventTypeReserveDecreased,
		vault.EventTypeWithdrawn,
	}, eventTypes(f.events))
}

func TestDepositThenImmediateWithdrawFails(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Deposit(f.alice, u(300)))
	f.events.Discard()

	err := f.engine.Withdraw(f.alice, u(300))
	require.ErrorIs(t, err, vault.ErrInsufficientWithdrawable)
	require.Empty(t, f.events.Drain())
	require.Equal(t, uint64(300), f.account(f.alice).Balance.Uint64())
	require.Equal(t, uint64(9_700), f.tokenBalance(f.alice))
}

func TestDecreaseThenWithdrawRestoresBalance(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Deposit(f.alice, u(200)))
	require.NoError(t, f.engine.DecreaseReserved(f.alice, u(200)))
	require.NoError(t, f.engine.Withdraw(f.alice, u(200)))

	view := f.account(f.alice)
	require.True(t, view.Balance.IsZero())
	require.True(t, view.ReservedTotal.IsZero())
	require.Equal(t, uint64(10_000), f.tokenBalance(f.alice))
	require.True(t, f.totals().Deposits.IsZero())
}

func TestWithdrawSucceedsIffWithinAvailable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Deposit(f.alice, u(100)))
	require.NoError(t, f.engine.DecreaseReserved(f.alice, u(30)))

	require.ErrorIs(t, f.engine.Withdraw(f.alice, u(31)), vault.ErrInsufficientWithdrawable)
	require.NoError(t, f.engine.Withdraw(f.alice, u(30)))
	require.ErrorIs(t, f.engine.Withdraw(f.alice, u(1)), vault.ErrInsufficientWithdrawable)
}

func TestDepositCap(t *testing.T) {
	f := newFixture(t)
	f.setCap(1000)

	require.NoError(t, f.engine.Deposit(f.alice, u(1000)))
	err := f.engine.Deposit(f.alice, u(1))
	require.ErrorIs(t, err, vault.ErrDepositCapExceeded)
	require.Equal(t, uint64(1000), f.account(f.alice).Balance.Uint64())
	require.Equal(t, uint64(9_000), f.tokenBalance(f.alice))

	// The cap is per account.
	require.NoError(t, f.engine.Deposit(f.bob, u(1000)))
	require.Equal(t, uint64(2000), f.totals().Deposits.Uint64())
}

func TestDepositRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.engine.Deposit(f.alice, u(0)), vault.ErrInvalidAmount)
	require.ErrorIs(t, f.engine.Deposit(f.alice, nil), vault.ErrInvalidAmount)
	require.ErrorIs(t, f.engine.Deposit([20]byte{}, u(1)), vault.ErrZeroAddress)
	require.ErrorIs(t, f.engine.Withdraw(f.alice, u(0)), vault.ErrInvalidAmount)
	require.ErrorIs(t, f.engine.IncreaseReserved(f.alice, u(0)), vault.ErrInvalidAmount)
	require.ErrorIs(t, f.engine.DecreaseReserved(f.alice, u(0)), vault.ErrInvalidAmount)
}

func TestDepositFailedTransferLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	poor := addr(0x50)
	err := f.engine.Deposit(poor, u(5))
	require.Error(t, err)
	require.True(t, errors.Is(err, bank.ErrInsufficientBalance))
	require.False(t, f.account(poor).Exists)
	require.True(t, f.totals().Deposits.IsZero())
}

func TestDepositOverflowRejected(t *testing.T) {
	f := newFixture(t)
	whale := addr(0x60)
	huge := new(uint256.Int).Lsh(u(1), 129)
	require.NoError(t, f.token.Mint(whale, huge))

	limit := new(uint256.Int).Lsh(u(1), 128)
	err := f.engine.Deposit(whale, limit)
	require.ErrorIs(t, err, vault.ErrOverflow)

	below := new(uint256.Int).Sub(limit, u(1))
	require.NoError(t, f.engine.Deposit(whale, below))
	require.ErrorIs(t, f.engine.Deposit(whale, u(1)), vault.ErrOverflow)
}

func TestIncreaseReserved(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.engine.IncreaseReserved(f.alice, u(1)), vault.ErrInsufficientWithdrawable)

	require.NoError(t, f.engine.Deposit(f.alice, u(100)))
	require.NoError(t, f.engine.DecreaseReserved(f.alice, u(60)))
	require.ErrorIs(t, f.engine.IncreaseReserved(f.alice, u(61)), vault.ErrInsufficientWithdrawable)
	require.NoError(t, f.engine.IncreaseReserved(f.alice, u(60)))

	view := f.account(f.alice)
	require.Equal(t, uint64(100), view.ReservedTotal.Uint64())
	require.True(t, view.Withdrawable.IsZero())
}

func TestDecreaseReservedBoundedByAvailable(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.engine.DecreaseReserved(f.alice, u(1)), vault.ErrInsufficientReserve)

	require.NoError(t, f.engine.Deposit(f.alice, u(100)))
	require.NoError(t, f.syncConsumption(f.alice, 40))
	require.ErrorIs(t, f.engine.DecreaseReserved(f.alice, u(61)), vault.ErrInsufficientReserve)
	require.NoError(t, f.engine.DecreaseReserved(f.alice, u(60)))
	f.requireInvariants(f.alice)

	view := f.account(f.alice)
	require.Equal(t, uint64(40), view.ReservedTotal.Uint64())
	require.Equal(t, uint64(40), view.ReservedConsumed.Uint64())
	require.Equal(t, uint64(60), view.Withdrawable.Uint64())
}

func TestAccumulatorSettlesBeforeMutation(t *testing.T) {
	f := newFixture(t)
	start := f.now

	require.NoError(t, f.engine.Deposit(f.alice, u(100)))
	view := f.account(f.alice)
	require.Equal(t, uint64(start), view.LastUpdate)
	require.True(t, view.AccumulatedReservedSeconds.IsZero())

	f.now += 10
	require.NoError(t, f.engine.DecreaseReserved(f.alice, u(40)))
	view = f.account(f.alice)
	require.Equal(t, uint64(start+10), view.LastUpdate)
	require.Equal(t, uint64(1_000), view.AccumulatedReservedSeconds.Uint64())

	// Views preview without persisting.
	f.now += 10
	require.Equal(t, uint64(1_600), f.account(f.alice).AccumulatedReservedSeconds.Uint64())
	stored, ok, err := f.manager.VaultAccountGet(f.alice)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1_000), stored.AccumulatedReservedSeconds.Uint64())
}

func TestSettlePure(t *testing.T) {
	fresh := vault.NewAccount()
	last, acc, err := vault.Settle(fresh, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(500), last)
	require.True(t, acc.IsZero())

	account := vault.NewAccount()
	account.ReservedTotal = u(10)
	account.ReservedConsumed = u(4)
	account.LastUpdate = 100
	account.AccumulatedReservedSeconds = u(7)

	last, acc, err = vault.Settle(account, 110)
	require.NoError(t, err)
	require.Equal(t, uint64(110), last)
	require.Equal(t, uint64(67), acc.Uint64())

	last, acc, err = vault.Settle(account, 90)
	require.NoError(t, err)
	require.Equal(t, uint64(100), last)
	require.Equal(t, uint64(7), acc.Uint64())
	require.Equal(t, uint64(100), account.LastUpdate, "settle must not mutate its input")

	saturated := account.Clone()
	saturated.AccumulatedReservedSeconds = new(uint256.Int).SetAllOne()
	_, _, err = vault.Settle(saturated, 200)
	require.ErrorIs(t, err, vault.ErrOverflow)
	require.True(t, vault.Preview(saturated, 200).Eq(new(uint256.Int).SetAllOne()))
}

func TestPauseBlocksInflowsOnly(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Deposit(f.alice, u(100)))
	require.NoError(t, f.syncConsumption(f.alice, 10))

	require.ErrorIs(t, f.engine.Pause(f.alice), vault.ErrUnauthorized)
	require.NoError(t, f.engine.Pause(f.admin))
	require.ErrorIs(t, f.engine.Pause(f.admin), vault.ErrNoChange)
	require.True(t, f.engine.Paused())

	require.ErrorIs(t, f.engine.Deposit(f.alice, u(1)), common.ErrModulePaused)
	require.ErrorIs(t, f.engine.IncreaseReserved(f.alice, u(1)), common.ErrModulePaused)
	require.ErrorIs(t, f.syncConsumption(f.alice, 20), common.ErrModulePaused)
	require.ErrorIs(t, f.engine.Participate(f.relayer, f.alice, u(1), [32]byte{1}), common.ErrModulePaused)

	require.NoError(t, f.engine.DecreaseReserved(f.alice, u(20)))
	require.NoError(t, f.claimRoyalty(f.alice, 10))
	require.NoError(t, f.engine.Withdraw(f.alice, u(30)))

	require.NoError(t, f.engine.Unpause(f.admin))
	require.NoError(t, f.engine.Deposit(f.alice, u(1)))
}

func TestCustodyAddressCannotHoldPosition(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.token.Mint(f.vaultAddr, u(1_000)))

	require.ErrorIs(t, f.engine.Deposit(f.vaultAddr, u(500)), vault.ErrCustodyIdentity)
	require.False(t, f.account(f.vaultAddr).Exists)
	require.True(t, f.totals().Deposits.IsZero())
	require.Equal(t, uint64(1_000), f.tokenBalance(f.vaultAddr))

	require.ErrorIs(t, f.engine.Withdraw(f.vaultAddr, u(1)), vault.ErrCustodyIdentity)
	require.ErrorIs(t, f.engine.Participate(f.relayer, f.vaultAddr, u(1), testRight), vault.ErrCustodyIdentity)
	require.ErrorIs(t, f.engine.SetTreasury(f.admin, f.vaultAddr), vault.ErrCustodyIdentity)
	require.Empty(t, eventTypes(f.events))

	// Royalty can only be backed by consumption from real deposits.
	require.ErrorIs(t, f.syncConsumption(f.vaultAddr, 500), vault.ErrExceedsReserved)
	require.ErrorIs(t, f.claimRoyalty(f.bob, 1), vault.ErrRoyaltyBudgetExceeded)
}
